package bot

import "fmt"

// Тексты ответов бота. Пользовательские строки сознательно на английском:
// канал и его аудитория читают сводки на этом языке.
const (
	msgWelcome = "Welcome! I post a daily summary of the MarketTwits channel.\n\n" +
		"Use /subscribe to receive it every morning, or /get_latest to read the most recent one.\n" +
		"Send /help for the full list of commands."

	msgHelp = "Available commands:\n" +
		"/start - introduction\n" +
		"/subscribe - receive the daily summary\n" +
		"/unsubscribe - stop receiving the daily summary\n" +
		"/get_latest - show the most recent summary\n" +
		"/help - this message"

	msgSubscribed        = "You are subscribed. The daily summary will arrive every morning."
	msgAlreadySubscribed = "You are already subscribed."
	msgUnsubscribed      = "You are unsubscribed. Come back any time with /subscribe."
	msgNotSubscribed     = "You were not subscribed."
	msgNoSummary         = "There is no summary yet. Please try again later."
	msgGenericError      = "Something went wrong. Please try again later."
)

func msgUnknownCommand(name string) string {
	return fmt.Sprintf("Unknown command /%s. Send /help for the list of commands.", name)
}

func msgCommandError(name string) string {
	return fmt.Sprintf("Sorry, /%s failed. Please try again later.", name)
}
