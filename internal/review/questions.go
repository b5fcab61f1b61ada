package review

// BaseQuestions are the financial reviewer's question bank, one per
// evaluation criterion and in the same order. They are generic on purpose;
// Contextualize rewrites them against the loaded profile.
var BaseQuestions = []string{
	"En analysant le savoir-faire transmis, pensez-vous que ce capital culturel incorporé représente un atout économique viable?",
	"Ces productions tangibles (œuvres, spectacles, enregistrements) vous semblent-elles suffisamment valorisables sur le marché?",
	"Les reconnaissances formelles ou distinctions mentionnées constituent-elles des garanties crédibles pour une institution financière?",
	"La notoriété et la réputation locale du porteur représentent-elles une forme de garantie morale pour un financement?",
	"La cohérence du récit et la capacité du porteur à formuler son projet sont-elles suffisantes pour assurer sa viabilité?",
	"L'ancrage territorial du porteur peut-il constituer un atout commercial et une garantie de stabilité pour ce projet?",
	"La vision de développement présentée vous paraît-elle réaliste et compatible avec nos contraintes de financement?",
	"Les réseaux et soutiens mentionnés pourraient-ils jouer le rôle de garants implicites en cas de difficulté?",
	"L'impact social et culturel de ce projet peut-il être converti en valeur ajoutée économique ou en notoriété positive?",
	"L'engagement et la persévérance du porteur compensent-ils d'éventuelles faiblesses dans son modèle économique?",
}

// ContextualQuestion is one reviewer question rewritten against the profile:
// a factual context paragraph plus the adapted question.
type ContextualQuestion struct {
	Criterion string `json:"criterion"`
	Context   string `json:"context"`
	Question  string `json:"question"`
}

// Response is the reviewer's answer to one contextual question.
type Response struct {
	Text  string `json:"text"`
	Score int    `json:"score"` // 0-10
}
