package hooks

import "github.com/forPelevin/hookscan/internal/types"

var platformGuidance = map[types.Platform]string{
	types.PlatformTikTok: "Optimiza para TikTok: el hook debe captar la atención en los primeros 1-2 segundos, " +
		"con lenguaje casual y directo, pensado para video vertical corto.",
	types.PlatformInstagram: "Optimiza para Instagram Reels: hook visual y aspiracional, " +
		"frases cortas que funcionen también como texto en pantalla.",
	types.PlatformTwitter: "Optimiza para X/Twitter: una frase contundente de menos de 280 caracteres " +
		"que invite a responder o debatir.",
	types.PlatformLinkedIn: "Optimiza para LinkedIn: tono profesional, aporta un aprendizaje o dato concreto " +
		"y evita el clickbait exagerado.",
	types.PlatformFacebook: "Optimiza para Facebook: tono cercano y conversacional, " +
		"apela a experiencias compartidas e invita a comentar.",
}

// PlatformGuidance returns the prompt fragment for platform, or "" when the
// platform is blank or unknown.
func PlatformGuidance(platform string) string {
	p, ok := types.ParsePlatform(platform)
	if !ok {
		return ""
	}
	return platformGuidance[p]
}
