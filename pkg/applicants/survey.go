package applicants

import (
	"regexp"
	"strings"
)

// The exported materials document breaks lines mid-word, hence the
// (?s:.*) gaps inside the question text.
const (
	qTechnicallyChallenging = `W(?s:.*)at work(?s:.*)ave you found mos(?s:.*)challenging(?s:.*)caree(?s:.*)wh(?s:.*)\?`
	qWorkProudOf            = `W(?s:.*)at work(?s:.*)ave you done that you(?s:.*)particularl(?s:.*)proud o(?s:.*)and why\?`
	qHappiestCareer         = `W(?s:.*)en have you been happiest in your professiona(?s:.*)caree(?s:.*)and why\?`
	qUnhappiestCareer       = `W(?s:.*)en have you been unhappiest in your professiona(?s:.*)caree(?s:.*)and why\?`
	qValueReflected         = `F(?s:.*)r one of \w+(?s:.*)s values(?s:.*)describe an example of ho(?s:.*)it wa(?s:.*)reflected(?s:.*)particula(?s:.*)body(?s:.*)you(?s:.*)work\.`
	qValueViolated          = `F(?s:.*)r one of \w+(?s:.*)s values(?s:.*)describe an example of ho(?s:.*)it wa(?s:.*)violated(?s:.*)you(?s:.*)organization o(?s:.*)work\.`
	qValuesInTension        = `F(?s:.*)r a pair of \w+(?s:.*)s values(?s:.*)describe a time in whic(?s:.*)the tw(?s:.*)values(?s:.*)tensio(?s:.*)for(?s:.*)your(?s:.*)and how yo(?s:.*)resolved it\.`
	qWhyUs                  = `W(?s:.*)y do you want to work for \w+\?`
)

// section is one answer in the materials: the text between the first
// heading in starts that matches and end.
type section struct {
	starts []string
	end    string
	set    func(*Answers, string)
}

var sections = []section{
	{
		starts: []string{
			`Work sample\(s\)`,
			`If(?s:.*)his work is entirely proprietary(?s:.*)please describe it as fully as y(?s:.*)can, providing necessary context\.`,
		},
		end: "Writing samples",
		set: func(a *Answers, s string) { a.WorkSamples = s },
	},
	{
		starts: []string{`What would you have done differently\?`, `Work samples`},
		end:    "Exploratory samples",
		set: func(a *Answers, s string) {
			if a.WorkSamples == "" {
				a.WorkSamples = s
			}
		},
	},
	{
		starts: []string{
			`Writing sample\(s\)`,
			`Please submit at least one writing sample \(and no more tha(?s:.*)three\) that you feel represent(?s:.*)you(?s:.*)providin(?s:.*)links if(?s:.*)necessary\.`,
			`Writing samples`,
		},
		end: "Analysis samples",
		set: func(a *Answers, s string) { a.WritingSamples = s },
	},
	{
		starts: []string{
			`Analysis sample\(s\)`,
			`please recount a(?s:.*)incident(?s:.*)which you analyzed syste(?s:.*)misbehavior(?s:.*)including as much technical detail as you can recall\.`,
			`Analysis samples`,
		},
		end: "Presentation samples",
		set: func(a *Answers, s string) { a.AnalysisSamples = s },
	},
	{
		starts: []string{
			`Presentation sample\(s\)`,
			`I(?s:.*)you don’t have a publicl(?s:.*)available presentation(?s:.*)pleas(?s:.*)describe a topic on which you have presented in th(?s:.*)past\.`,
			`Presentation samples`,
		},
		end: "Questionnaire",
		set: func(a *Answers, s string) { a.PresentationSamples = s },
	},
	{
		starts: []string{`Exploratory sample\(s\)`, `Exploratory samples`},
		end:    "Questionnaire",
		set:    func(a *Answers, s string) { a.ExploratorySamples = s },
	},
	{[]string{qTechnicallyChallenging}, qWorkProudOf, func(a *Answers, s string) { a.QuestionTechnicallyChallenging = s }},
	{[]string{qWorkProudOf}, qHappiestCareer, func(a *Answers, s string) { a.QuestionProudOf = s }},
	{[]string{qHappiestCareer}, qUnhappiestCareer, func(a *Answers, s string) { a.QuestionHappiest = s }},
	{[]string{qUnhappiestCareer}, qValueReflected, func(a *Answers, s string) { a.QuestionUnhappiest = s }},
	{[]string{qValueReflected}, qValueViolated, func(a *Answers, s string) { a.QuestionValueReflected = s }},
	{[]string{qValueViolated}, qValuesInTension, func(a *Answers, s string) { a.QuestionValueViolated = s }},
	{[]string{qValuesInTension}, qWhyUs, func(a *Answers, s string) { a.QuestionValuesInTension = s }},
	{[]string{qWhyUs}, "", func(a *Answers, s string) { a.QuestionWhyUs = s }},
}

var answerNoise = strings.NewReplacer(
	"________________", "",
	"Candidate Materials: Technical Program Manager", "",
	"Candidate Materials", "",
	"Work sample(s)", "",
)

// ParseAnswers extracts the answered sections of a materials document.
func ParseAnswers(materials string) Answers {
	var a Answers
	if strings.TrimSpace(materials) == "" {
		return a
	}
	for _, s := range sections {
		for _, start := range s.starts {
			if v := between(start, s.end, materials); v != "" {
				s.set(&a, v)
				break
			}
		}
	}
	return a
}

func between(start, end, text string) string {
	re, err := regexp.Compile(start + `(?s)(.*)` + end)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := answerNoise.Replace(m[len(m)-1])
	return strings.TrimSpace(strings.TrimLeft(v, ":"))
}
