package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/ats_v1.txt
var promptATSv1 string

// BuildPrompt renders the ATS evaluation prompt with the resume and job
// description embedded verbatim.
func BuildPrompt(resumeText, jobDescription string) string {
	replacer := strings.NewReplacer(
		"{{RESUME_TEXT}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobDescription,
	)
	return replacer.Replace(promptATSv1)
}
