// Package messages holds every text the bot sends, keyed by a stable id
// and translated with golang.org/x/text. Ukrainian is the source locale.
package messages

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys
const (
	JoinAlreadyStarted = "join.already_started"
	JoinHost           = "join.host"
	JoinHostHint       = "join.host_hint"
	JoinHostTaken      = "join.host_taken"
	JoinPlayer         = "join.player"
	JoinAgain          = "join.again"

	NameSaved      = "name.saved"
	NameHostNotice = "name.host_notice"
	NameAlreadySet = "name.already_set"
	NameNotJoined  = "name.not_joined"
	NameEmpty      = "name.empty"

	StartNotHost    = "start.not_host"
	StartAlready    = "start.already"
	StartNotEnough  = "start.not_enough"
	StartFailed     = "start.failed"
	StartRosterLine = "start.roster_line"
	StartDone       = "start.done"

	ButtonSendRole = "button.send_role"

	RoleNotice     = "role.notice"
	RoleSent       = "role.sent"
	RoleFailed     = "role.failed"
	RoleNotStarted = "role.not_started"
	RoleUnknown    = "role.unknown_player"

	HostOnly = "host_only"

	NumbersNotReady = "numbers.not_ready"
	NumbersNotice   = "numbers.notice"
	NumbersFailed   = "numbers.failed"
	NumbersDone     = "numbers.done"

	StopNotHost  = "stop.not_host"
	StopFarewell = "stop.farewell"
	StopDone     = "stop.done"

	RosterEmpty  = "roster.empty"
	RosterLine   = "roster.line"
	RosterNoName = "roster.no_name"
)

var uk = map[string]string{
	JoinAlreadyStarted: "Гру вже розпочато. Зачекайте на її завершення.",
	JoinHost:           "Ви ведучий. Ось список гравців:\n%s",
	JoinHostHint:       "Щоб розпочати гру, натисніть /startgame",
	JoinHostTaken:      "Ведучий уже приєднався з іншого акаунта.",
	JoinPlayer:         "Ви увійшли як гравець. Введіть своє ім'я.",
	JoinAgain:          "Ви вже приєднані. Введіть своє ім'я.",

	NameSaved:      "Ім'я збережено! Очікуйте на початок гри.",
	NameHostNotice: "👤 Гравець з ім'ям %s @%s приєднався",
	NameAlreadySet: "Ім'я вже встановлено.",
	NameNotJoined:  "Спочатку натисніть /join",
	NameEmpty:      "Ім'я не може бути порожнім. Введіть своє ім'я.",

	StartNotHost:    "Лише ведучий може розпочати гру.",
	StartAlready:    "Гра вже запущена.",
	StartNotEnough:  "Недостатньо гравців для початку гри.",
	StartFailed:     "Не вдалося розпочати гру: %v",
	StartRosterLine: "Гравець №%d - %s @%s - %s",
	StartDone:       "✅ Усі ролі роздані. Щоб надіслати номери, натисніть /sendnumbers",

	ButtonSendRole: "Надіслати роль",

	RoleNotice:     "Ваша роль: %s",
	RoleSent:       "%s\n✅ Роль надіслана гравцю.",
	RoleFailed:     "Не вдалося надіслати роль: %v",
	RoleNotStarted: "Гру ще не розпочато.",
	RoleUnknown:    "Цього гравця немає в поточній грі.",

	HostOnly: "Лише ведучий може використовувати цю команду.",

	NumbersNotReady: "Номери ще не сформовані. Спочатку запустіть гру через /startgame.",
	NumbersNotice:   "Ваш номер у цій грі: %d",
	NumbersFailed:   "Не вдалося надіслати номер гравцю %s: %v",
	NumbersDone:     "📩 Усі номери надіслані гравцям.",

	StopNotHost:  "Лише ведучий може завершити гру.",
	StopFarewell: "Гру завершено. Щоб приєднатися знову, натисніть /join",
	StopDone:     "Гру завершено. Усі дані очищено.",

	RosterEmpty:  "Гравців поки що немає.",
	RosterLine:   "- %s @%s",
	RosterNoName: "Ім'я не вказано",
}

var en = map[string]string{
	JoinAlreadyStarted: "The game has already started. Please wait for it to finish.",
	JoinHost:           "You are the host. Players so far:\n%s",
	JoinHostHint:       "Press /startgame to start the game",
	JoinHostTaken:      "The host has already joined from another account.",
	JoinPlayer:         "You joined as a player. Please enter your name.",
	JoinAgain:          "You have already joined. Please enter your name.",

	NameSaved:      "Name saved! Wait for the game to start.",
	NameHostNotice: "👤 Player %s @%s joined",
	NameAlreadySet: "Your name is already set.",
	NameNotJoined:  "Press /join first",
	NameEmpty:      "The name cannot be empty. Please enter your name.",

	StartNotHost:    "Only the host can start the game.",
	StartAlready:    "The game is already running.",
	StartNotEnough:  "Not enough players to start the game.",
	StartFailed:     "Could not start the game: %v",
	StartRosterLine: "Player #%d - %s @%s - %s",
	StartDone:       "✅ All roles are dealt. Press /sendnumbers to send seat numbers",

	ButtonSendRole: "Send role",

	RoleNotice:     "Your role: %s",
	RoleSent:       "%s\n✅ Role sent to the player.",
	RoleFailed:     "Could not send the role: %v",
	RoleNotStarted: "The game has not started yet.",
	RoleUnknown:    "This player is not in the current game.",

	HostOnly: "Only the host can use this command.",

	NumbersNotReady: "Seat numbers are not ready. Start the game with /startgame first.",
	NumbersNotice:   "Your seat number in this game: %d",
	NumbersFailed:   "Could not send the number to player %s: %v",
	NumbersDone:     "📩 All numbers were sent to the players.",

	StopNotHost:  "Only the host can stop the game.",
	StopFarewell: "The game is over. Press /join to join again",
	StopDone:     "The game is over. All data has been cleared.",

	RosterEmpty:  "No players yet.",
	RosterLine:   "- %s @%s",
	RosterNoName: "No name given",
}

// Supported lists the locales with a full catalog, source locale first
var Supported = []language.Tag{language.Ukrainian, language.English}

var (
	builder = mustBuild()
	matcher = language.NewMatcher(Supported)
)

func mustBuild() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Ukrainian))
	for tag, texts := range map[language.Tag]map[string]string{
		language.Ukrainian: uk,
		language.English:   en,
	} {
		for key, text := range texts {
			if err := b.SetString(tag, key, text); err != nil {
				panic(fmt.Sprintf("messages: %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// NewPrinter returns a printer for the closest supported locale
func NewPrinter(locale string) (*message.Printer, error) {
	if locale == "" {
		return message.NewPrinter(language.Ukrainian, message.Catalog(builder)), nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	_, idx, _ := matcher.Match(tag)
	return message.NewPrinter(Supported[idx], message.Catalog(builder)), nil
}

// Keys returns every message key known to the catalog
func Keys() []string {
	keys := make([]string, 0, len(uk))
	for key := range uk {
		keys = append(keys, key)
	}
	return keys
}

// Lookup returns the raw template for key in locale
func Lookup(locale language.Tag, key string) (string, bool) {
	var texts map[string]string
	switch locale {
	case language.Ukrainian:
		texts = uk
	case language.English:
		texts = en
	default:
		return "", false
	}
	text, ok := texts[key]
	return text, ok
}
