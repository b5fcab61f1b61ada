package profile

// Criteria are the ten fixed evaluation dimensions, drawn from
// cultural-capital theory. Order matters: schedules, forms and generated
// payloads all follow it.
var Criteria = []string{
	"Capital culturel incorporé",
	"Capital objectivé",
	"Capital institutionnalisé",
	"Capital symbolique reconnu",
	"Alignement narratif interprétatif",
	"Ancrage territorial / communautaire",
	"Capacité de projection identitaire",
	"Soutien socio-culturel mobilisable",
	"Usage social du projet artistique",
	"Continuité d'engagement culturel",
}
