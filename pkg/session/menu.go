package session

import (
	"fmt"
	"strings"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/catalog"
)

// Fixed message bodies sent back over the messaging channel.
const (
	// MsgNoAccess is sent when the phone has no authorized datasets.
	MsgNoAccess = "Seu número não tem acesso a nenhum painel no momento. Fale com o administrador da sua conta para liberar o acesso."

	menuHeader = "Escolha o painel que deseja consultar:"
	menuFooter = "Responda com o número ou o nome do painel.\nPara trocar de painel depois, é só enviar *trocar*."
)

// optionGlyphs are the emoji digits used for menu positions 1-10. Positions
// beyond 10 fall back to plain "N." numbering.
var optionGlyphs = []string{
	"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟",
}

// RenderMenu builds the dataset selection menu, one line per dataset,
// prefixed with a personalized greeting when the user name is known.
func RenderMenu(datasets []catalog.AvailableDataset, userName string) string {
	var b strings.Builder

	if userName != "" {
		fmt.Fprintf(&b, "Olá, %s! 👋\n\n", userName)
	}
	b.WriteString(menuHeader)
	b.WriteString("\n\n")

	for i, d := range datasets {
		b.WriteString(optionGlyph(i + 1))
		b.WriteString(" ")
		b.WriteString(d.DatasetName)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(menuFooter)
	return b.String()
}

// ConfirmationMessage builds the message sent after a dataset is selected.
func ConfirmationMessage(datasetName string) string {
	return fmt.Sprintf("✅ Pronto! Você está conectado ao painel *%s*. Pode fazer sua pergunta.", datasetName)
}

func optionGlyph(n int) string {
	if n >= 1 && n <= len(optionGlyphs) {
		return optionGlyphs[n-1]
	}
	return fmt.Sprintf("%d.", n)
}
