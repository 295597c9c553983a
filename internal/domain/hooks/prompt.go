package hooks

import (
	"strings"

	"github.com/forPelevin/hookscan/internal/types"
)

const systemPrompt = "Eres un experto en marketing de contenido viral y copywriting para redes sociales. " +
	"Siempre respondes en formato JSON válido."

func userPrompt(req types.HookRequest) string {
	var b strings.Builder
	b.WriteString("Genera EXACTAMENTE 5 hooks (frases de apertura) para un video corto sobre la siguiente idea.\n\n")
	b.WriteString("IDEA:\n")
	b.WriteString(strings.TrimSpace(req.Idea))
	b.WriteString("\n\n")
	if niche := strings.TrimSpace(req.Niche); niche != "" {
		b.WriteString("NICHO: ")
		b.WriteString(niche)
		b.WriteString("\nAdapta el vocabulario y los ejemplos a este nicho.\n\n")
	}
	if g := PlatformGuidance(req.Platform); g != "" {
		b.WriteString("PLATAFORMA:\n")
		b.WriteString(g)
		b.WriteString("\n\n")
	}
	b.WriteString(`INSTRUCCIONES:
- Un hook por cada tipo, en este orden de tipos: emotional, rational, surprise, controversial, curiosity
- "text": el hook listo para decir en los primeros segundos del video
- "type": uno de emotional, rational, surprise, controversial, curiosity
- "retention_score": número de 0 a 100 que estima cuánto retiene la atención
- "description": una frase breve que explique por qué funciona
- Ordena los hooks de mayor a menor retention_score

RESPONDE EN FORMATO JSON CON ESTA ESTRUCTURA:
{
    "hooks": [
        {"text": "...", "type": "emotional", "retention_score": 85, "description": "..."}
    ]
}

Responde SOLO con el JSON, sin texto adicional.
`)
	return b.String()
}
