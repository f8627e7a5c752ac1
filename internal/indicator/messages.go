package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeGerman  locale = "de"
)

type messages struct {
	capturing  string
	recognized string
	errorText  string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "de") {
		return localeGerman
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeGerman:
		return messages{
			capturing:  "Karte wird erfasst…",
			recognized: "Karte erkannt…",
			errorText:  "Kartenerkennung fehlgeschlagen",
		}
	default:
		return messages{
			capturing:  "Scanning card…",
			recognized: "Card detected…",
			errorText:  "Card recognition error",
		}
	}
}
