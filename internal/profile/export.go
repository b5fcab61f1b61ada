package profile

import (
	"encoding/csv"
	"fmt"
	"strings"

	jsonx "tafahom/internal/shared/json"
)

// Export formats offered by the portal's download menu.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatText = "txt"
)

// ExportFormats lists the selectable formats, in menu order.
var ExportFormats = []string{FormatJSON, FormatCSV, FormatText}

// Export renders a profile document in the requested format.
func Export(doc *Document, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := jsonx.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil

	case FormatCSV:
		var sb strings.Builder
		w := csv.NewWriter(&sb)
		if err := w.Write([]string{"Critère", "Score", "Commentaire"}); err != nil {
			return "", err
		}
		for _, criterion := range doc.Profile.Criteria {
			if err := w.Write([]string{criterion.Name, fmt.Sprintf("%d", criterion.Score), criterion.Comment}); err != nil {
				return "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", err
		}
		return sb.String(), nil

	case FormatText:
		var sb strings.Builder
		sb.WriteString("PROFIL TAFAHOM\n\n")
		fmt.Fprintf(&sb, "Score IAS global: %d/100\n\n", doc.Profile.IASScore)
		sb.WriteString("CRITÈRES:\n")
		for _, criterion := range doc.Profile.Criteria {
			fmt.Fprintf(&sb, "- %s: %d/10\n", criterion.Name, criterion.Score)
			fmt.Fprintf(&sb, "  %s\n\n", criterion.Comment)
		}
		fmt.Fprintf(&sb, "SYNTHÈSE:\n%s", doc.Profile.Summary)
		return sb.String(), nil

	default:
		return "", fmt.Errorf("unknown export format %q (want json, csv or txt)", format)
	}
}
