package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// The law codes offered on the main menu. The drill-down works for any
// code present in the store; this closed set only controls which entry
// buttons exist.
const (
	lawCodeCriminal = "criminal"
	lawCodeTraffic  = "traffic"
)

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ របៀបប្រើប្រាស់", "help_usage"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 សួរ AI (ស្វែងរក)", "ask_ai_info"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧮 គណនាពិន័យ", "tool_calc"),
			tgbotapi.NewInlineKeyboardButtonData("📝 បង្កើតលិខិត", "menu_gen"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗣️ បកប្រែ (Translate)", "tool_translate"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📘 ក្រមព្រហ្មទណ្ឌ", lawCodeCallback(lawCodeCriminal)),
			tgbotapi.NewInlineKeyboardButtonData("🛵 ច្បាប់ចរាចរណ៍", lawCodeCallback(lawCodeTraffic)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📍 រកសមត្ថកិច្ច", "info_location"),
		),
	)
}

func backToMainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 ត្រឡប់ទៅម៉ឺនុយដើម", "main"),
		),
	)
}

func generatorMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 ពាក្យបណ្តឹង", "gen_complaint"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤝 កិច្ចសន្យាខ្ចីប្រាក់", "gen_loan"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 ត្រឡប់ក្រោយ", "main"),
		),
	)
}

// generatorDocTypes maps gen_* payload suffixes to the document name
// fed into the AI prompt.
var generatorDocTypes = map[string]string{
	"complaint": "ពាក្យបណ្តឹង",
	"loan":      "កិច្ចសន្យាខ្ចីប្រាក់",
}
