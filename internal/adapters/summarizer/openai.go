package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"markettwits-digest-bot/internal/domain"
	openai "markettwits-digest-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Лимит символов новостного текста в промпте. При переполнении тексты
// склеиваются в один блок с маркером обрезки: структура по сообщениям
// теряется, но запрос гарантированно помещается в бюджет.
const promptBudget = 8000

const systemPrompt = "You are a professional financial news analyst."

// OpenAI строит дневной дайджест через OpenAI Chat Completions.
type OpenAI struct {
	client chatClient
	model  string
}

// NewOpenAI создаёт генератор дайджестов.
func NewOpenAI(client chatClient, model string) *OpenAI {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &OpenAI{client: client, model: model}
}

var _ domain.Summarizer = (*OpenAI)(nil)

type summaryPayload struct {
	Summary   string   `json:"summary"`
	KeyTopics []string `json:"key_topics"`
}

// SummarizeDay строит саммари за день date по списку сообщений.
// Невалидный JSON в ответе модели не считается ошибкой: сырой текст
// становится саммари с пустым списком тем.
func (s *OpenAI) SummarizeDay(ctx context.Context, items []domain.NewsItem, date time.Time) (domain.Digest, error) {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if text := strings.TrimSpace(item.Text); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return domain.Digest{}, domain.ErrNoContent
	}

	combined := strings.Join(texts, "\n\n")
	if runes := []rune(combined); len(runes) > promptBudget {
		texts = []string{string(runes[:promptBudget]) + "..."}
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		MaxTokens:   500,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: buildPrompt(texts, date.Format("2006-01-02"))},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Digest{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Digest{}, fmt.Errorf("openai completion: пустой ответ")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	digest := domain.Digest{Date: date, NewsCount: len(items)}
	var parsed summaryPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		digest.Summary = content
		return digest, nil
	}
	digest.Summary = strings.TrimSpace(parsed.Summary)
	if digest.Summary == "" {
		digest.Summary = content
	}
	digest.KeyTopics = filterValues(parsed.KeyTopics)
	return digest, nil
}

func buildPrompt(texts []string, date string) string {
	var b strings.Builder
	for _, text := range texts {
		b.WriteString("• ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return fmt.Sprintf(`Сегодня %s

Дай мне краткое резюме на основе твитов из новостного канала о финансовых рынках. Дай мне только основные новости о мировом рынке и политике, не используй российские новости, криптовалюты, мемы, кроме случаев, когда они важны.

ВОТ все твиты:
"
%s"

Используй формат как пронумерованный список кратких новостей, отсортированных от самых важных к менее важным.

Формат ответа в JSON:
{
    "summary": "Краткий обзор самых важных рыночных событий",
    "key_topics": ["важная новость 1", "важная новость 2", ...]
}

Фокусируйся на:
- Крупных движениях мировых рынков
- Важных политических событиях, влияющих на рынки
- Решениях центральных банков
- Экономических показателях
- Корпоративных доходах и крупных бизнес-новостях
- Геополитических событиях с рыночным воздействием

Исключи:
- Российские внутренние новости (если не глобально значимые)
- Новости о криптовалютах (если не имеют большого рыночного воздействия)
- Мемы и шутки (если не важны)
- Мелкие местные новости
- Спекуляции без содержания

Пиши на русском языке в формате пронумерованного списка.`, date, b.String())
}

func filterValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
