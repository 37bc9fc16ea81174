package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/tutorly/internal/routing"
)

const lightweightSystemPrompt = `You are an expert AI tutor. Give answers that are comprehensive yet accessible, and pitched at the student's level.`

var lightweightTemplate = template.Must(template.New("lightweight").Parse(`As an expert AI tutor, provide a comprehensive yet accessible answer to this question:

Student Question: "{{.Query}}"
Student Context: Level {{.Level}}, interested in {{.Subjects}}

Guidelines:
1. Tailor the explanation to the student's level
2. Use clear, educational language
3. Provide practical examples when helpful
4. Encourage further learning
5. Connect to broader concepts when relevant

Focus on educational value and student engagement.`))

const deepSystemPrompt = `You are a panel of expert educators and subject matter specialists. Combine your perspectives into a single, validated learning response.`

var deepTemplate = template.Must(template.New("deep").Parse(`As a team of expert educators and subject matter specialists, provide a comprehensive, multi-perspective analysis of this learning question:

Student Question: "{{.Query}}"
Student Context: {{.Context}}

Multi-Agent Analysis Required:
1. Subject Matter Expert: Provide deep technical accuracy
2. Educational Specialist: Ensure pedagogical effectiveness
3. Learning Psychologist: Consider cognitive load and learning progression
4. Practical Instructor: Add real-world applications and examples

Synthesize insights from all perspectives to create an optimal learning response that:
- Addresses the question with exceptional depth and accuracy
- Uses appropriate educational scaffolding
- Provides multiple learning pathways
- Includes assessment opportunities
- Connects to broader learning objectives

Validate the response for educational effectiveness and accuracy.`))

func buildLightweightPrompt(query string, uctx routing.UserContext) (string, error) {
	level := uctx.Level
	if level == "" {
		level = "beginner"
	}
	subjects := "general learning"
	if len(uctx.Subjects) > 0 {
		subjects = strings.Join(uctx.Subjects, ", ")
	}

	var buf bytes.Buffer
	err := lightweightTemplate.Execute(&buf, map[string]string{
		"Query":    query,
		"Level":    level,
		"Subjects": subjects,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildDeepPrompt(query string, uctx routing.UserContext) (string, error) {
	ctxJSON, err := json.MarshalIndent(uctx.WithDefaults(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode user context: %w", err)
	}

	var buf bytes.Buffer
	err = deepTemplate.Execute(&buf, map[string]string{
		"Query":   query,
		"Context": string(ctxJSON),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func cachedContent(query string) string {
	return fmt.Sprintf(`[Cached Response] Here's a quick answer to your question about "%s". This response was optimized for speed while maintaining educational accuracy.`, query)
}
