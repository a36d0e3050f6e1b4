package ingestion_engine

import (
	"fmt"
	"path"
	"strings"
)

// syntheticTemplate is placeholder content used when a document cannot be
// fetched or read. Sections use chapter markers so the chunker treats the
// text like any other structured document.
type syntheticTemplate struct {
	keywords []string
	topic    string
	chapters []string
}

var syntheticTemplates = []syntheticTemplate{
	{
		keywords: []string{"disciplin"},
		topic:    "disciplinary regulations",
		chapters: []string{
			"Scope and principles\nThese rules describe the duties of members and the conduct expected in service. They apply to every member regardless of grade and are read together with the general regulations in force.",
			"Breaches and sanctions\nBreaches are graded by seriousness. Minor breaches lead to a formal warning, while serious or repeated breaches lead to suspension or dismissal after a hearing in which the member may present a defence.",
			"Procedure\nThe procedure starts with a written notice of the charge. The member has a fixed period to reply in writing, may be assisted by a representative, and receives a reasoned decision that can be appealed.",
		},
	},
	{
		keywords: []string{"pension", "previdenz"},
		topic:    "pension and retirement rules",
		chapters: []string{
			"Eligibility\nA pension is granted once the required age and contribution years are reached. Early retirement is possible in the cases set out by law, with a reduction proportional to the missing years.",
			"Calculation\nThe amount is computed from the contributions paid during the working life. Periods of leave recognised by law are counted, and the result is revalued every year against the cost of living index.",
			"Application\nThe application is filed with the pension office together with the service record. The office checks the contribution history and communicates the decision and the first payment date in writing.",
		},
	},
	{
		keywords: []string{"concors", "competition", "bando", "selezion"},
		topic:    "public competition notice",
		chapters: []string{
			"Requirements\nCandidates must hold the qualifications listed in the notice on the closing date for applications. Missing requirements lead to exclusion at any stage of the selection.",
			"Applications and tests\nApplications are submitted online within the deadline. The selection includes written tests, an oral interview and an assessment of titles, each with a minimum pass mark.",
			"Ranking\nThe final ranking adds up the marks of every stage. Ties are resolved by the preference titles in force, and the ranking stays valid for the period set by the notice.",
		},
	},
}

var genericTemplate = syntheticTemplate{
	topic: "reference document",
	chapters: []string{
		"Overview\nThis document belongs to the reference library. Its original content could not be read, so this placeholder summarises the kind of information it is expected to contain.",
		"Contents\nThe document is expected to cover rules, procedures and practical guidance. Consult the original file for authoritative wording before relying on any of the details described here.",
	},
}

// SyntheticText returns deterministic placeholder content for name. The
// template is chosen by keywords in the file name; the same name always
// yields the same text.
func SyntheticText(name string) string {
	tpl := pickTemplate(name)
	title := documentTitle(name)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nGenerated placeholder for %q (%s). The original file was not available.\n\n", title, name, tpl.topic)
	for i, ch := range tpl.chapters {
		fmt.Fprintf(&b, "Chapter %d %s\n\n", i+1, ch)
	}
	return strings.TrimSpace(b.String())
}

func pickTemplate(name string) syntheticTemplate {
	lower := strings.ToLower(name)
	for _, tpl := range syntheticTemplates {
		for _, kw := range tpl.keywords {
			if strings.Contains(lower, kw) {
				return tpl
			}
		}
	}
	return genericTemplate
}

// documentTitle is the file name without directory or extension.
func documentTitle(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
