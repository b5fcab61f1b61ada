package dialogue

// PortalQuestions is the fixed interview plan, in the order the portal works
// through it. Question one is folded into the greeting.
var PortalQuestions = []string{
	"Comment avez-vous appris ce que vous faites aujourd'hui dans votre art ou votre pratique ?",
	"Est-ce que vous avez des objets, des œuvres, des enregistrements ou des traces concrètes de ce que vous faites ?",
	"Avez-vous déjà été reconnu officiellement pour votre travail ? Par exemple : avez-vous reçu un prix, un diplôme, ou été invité à des événements culturels ou religieux particuliers ?",
	"Est-ce que les gens autour de vous — dans votre quartier, votre ville ou votre communauté — vous connaissent ou vous considèrent comme une personne importante dans votre domaine ?",
	"Est-ce que vous avez un projet clair pour l'avenir ? Par exemple, quelque chose que vous aimeriez construire, développer ou transmettre avec votre art ?",
	"Y a-t-il des personnes ou des groupes qui vous soutiennent ou vous accompagnent dans ce que vous faites ? Cela peut être une troupe, un mentor, une association, ou même des proches.",
	"Est-ce que ce que vous faites a un impact sur les autres ? Par exemple : cela inspire, rassemble, transmet quelque chose autour de vous ?",
	"Est-ce que vous continuez à faire ce que vous faites même quand vous ne gagnez pas d'argent avec ? Est-ce que vous tenez à cette activité malgré les difficultés ?",
	"Est-ce que vous avez des revenus liés à votre art aujourd'hui ? De quelle manière gagnez-vous de l'argent grâce à votre activité ?",
	"Si demain une institution vous proposait un financement, que diriez-vous pour la convaincre que votre projet est recevable ?",
}
