package rag

import (
	"fmt"
	"strings"

	"azusena/internal/conversation"
	"azusena/internal/corpus"
)

const systemPrompt = `Nombre: AzuSENA
Rol: Asistente virtual del Servicio Nacional de Aprendizaje (SENA) de Colombia.
Función principal: responder con precisión sobre temas administrativos, jurídicos y académicos del SENA y del marco normativo colombiano a aprendices, instructores y funcionarios. Salvo que el usuario indique otro país, las preguntas jurídicas se responden con base en leyes, decretos y normas de Colombia.

Directrices:
1. Preséntate siempre como AzuSENA, asistente virtual del SENA.
2. Usa primero la información de la base de conocimiento entregada como contexto. Si la respuesta no proviene de ella, indícalo con claridad.
3. No inventes información. Si no conoces un tema, dilo.
4. Responde de forma directa y detallada, sin información innecesaria.
5. Mantén un tono formal, amable y respetuoso.
6. Cuando sea apropiado, termina invitando a continuar la conversación.

Restricciones:
• No emitas opiniones personales ni juicios de valor.
• Si te preguntan qué modelo eres, explica que AzuSENA combina un modelo de lenguaje con recuperación de información (RAG) añadida por el equipo de SENNOVA.`

const historyHeader = "Contexto de la conversación previa:\n"

// historyContext renders the last n turns for the generation backend, or "" without history.
func historyContext(history []conversation.Turn, n int) string {
	rendered := conversation.FormatContext(history, n)
	if rendered == "" {
		return ""
	}
	return historyHeader + rendered
}

// articleContext renders retrieved articles as generation context, followed by the history.
func articleContext(matches []ScoredMatch, history string) string {
	var b strings.Builder
	b.WriteString("Artículos relevantes de la base de conocimiento:\n\n")
	for _, m := range matches {
		a := m.Article
		fmt.Fprintf(&b, "[Artículo %s - %s] Tema: %s", a.Number, a.Source, a.Theme)
		if sub := corpus.Value(a.Subtheme); sub != "" {
			fmt.Fprintf(&b, " / %s", sub)
		}
		b.WriteString("\n" + a.Text + "\n")
		if summary := corpus.Value(a.Summary); summary != "" {
			b.WriteString("Resumen: " + summary + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Responde con base en estos artículos y cítalos por número.")
	if history != "" {
		b.WriteString("\n\n" + history)
	}
	return b.String()
}
