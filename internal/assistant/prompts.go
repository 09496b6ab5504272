package assistant

import "fmt"

const (
	EmptyQuestionAnswer = "Пожалуйста, задайте вопрос."
	ModelFailureAnswer  = "Не удалось получить ответ от нейроассистента."
	NoDocumentsAnswer   = "На ваш вопрос пока нет ответа в методических документах. Обратитесь к администрации."

	// MaxContextRunes bounds the retrieved context sent to the model.
	MaxContextRunes = 1000
)

const teacherTemplate = `
Ты — нейросотрудник-учитель русского языка. Отвечай кратко, точно и только по фактам из контекста.

Правила:
1. Отвечай на русском языке.
2. Ответ — 1–2 предложения, без лишних слов.
3. Не упоминай "раздел", "чанк", "заголовок".
4. Если вопрос с ошибкой — ответь: «Правильно: ...»
5. Если вопрос неясен — попроси уточнить.
6. Если ответа нет — скажи: «Ваш вопрос будет передан методической службе.»

Контекст:
%s

Вопрос: %s

Ответ:
`

const methodistTemplate = `
Ты — нейроассистент-методист. Отвечай кратко, точно и только по фактам из контекста.

Правила:
1. Отвечай на русском.
2. Только факты из контекста.
3. Не упоминай "чанк", "раздел".
4. Если вопрос неясен — попроси уточнить.
5. Если ответа нет — скажи: «Нет информации в документах.»

Контекст:
%s

Вопрос: %s

Ответ:
`

// noContextSystem is used when neither retrieval nor keyword search found
// anything.
const noContextSystem = "Вы — преподаватель ЕГЭ. Если не знаете точного ответа — так и скажите."

func teacherPrompt(context, question string) string {
	return fmt.Sprintf(teacherTemplate, truncate(context, MaxContextRunes), question)
}

func methodistPrompt(context, question string) string {
	return fmt.Sprintf(methodistTemplate, truncate(context, MaxContextRunes), question)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
