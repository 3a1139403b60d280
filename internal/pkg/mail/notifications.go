package mail

import (
	"fmt"
	"strings"
)

// Notifier is the transactional-email surface the payment reconciler and the
// auth flow depend on. Every send is best-effort: callers log failures and
// keep going, they never roll back state because a mail bounced.
type Notifier interface {
	SendPaymentConfirmed(to, name, planName string, credits int, amountBRL float64) error
	SendRefundProcessed(to, name string, amountBRL float64) error
	SendLoginCode(to, code string) error
}

// SMTPNotifier delivers notifications through the configured SMTP relay.
type SMTPNotifier struct{}

func NewSMTPNotifier() *SMTPNotifier {
	return &SMTPNotifier{}
}

func (n *SMTPNotifier) SendPaymentConfirmed(to, name, planName string, credits int, amountBRL float64) error {
	subject := "Pagamento confirmado - RestauraFoto"
	body := fmt.Sprintf(
		"<h2>Pagamento confirmado!</h2>"+
			"<p>Olá%s,</p>"+
			"<p>Recebemos seu pagamento de <strong>R$ %.2f</strong> referente ao pacote <strong>%s</strong>.</p>"+
			"<p><strong>%d créditos</strong> de restauração já estão disponíveis na sua conta.</p>"+
			"<p>Equipe RestauraFoto</p>",
		salutation(name), amountBRL, planName, credits,
	)
	return SendMail(to, subject, body)
}

func (n *SMTPNotifier) SendRefundProcessed(to, name string, amountBRL float64) error {
	subject := "Reembolso processado - RestauraFoto"
	body := fmt.Sprintf(
		"<h2>Reembolso processado</h2>"+
			"<p>Olá%s,</p>"+
			"<p>O reembolso de <strong>R$ %.2f</strong> foi processado pelo nosso provedor de pagamento. "+
			"O valor deve aparecer na sua conta em até 5 dias úteis.</p>"+
			"<p>Equipe RestauraFoto</p>",
		salutation(name), amountBRL,
	)
	return SendMail(to, subject, body)
}

func (n *SMTPNotifier) SendLoginCode(to, code string) error {
	subject := "Seu código de acesso - RestauraFoto"
	body := fmt.Sprintf(
		"<h2>Código de acesso</h2>"+
			"<p>Use o código abaixo para entrar. Ele expira em 10 minutos.</p>"+
			"<p style=\"font-size:28px;letter-spacing:4px\"><strong>%s</strong></p>"+
			"<p>Se você não solicitou este código, ignore este e-mail.</p>",
		code,
	)
	return SendMail(to, subject, body)
}

func salutation(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return " " + trimmed
}
