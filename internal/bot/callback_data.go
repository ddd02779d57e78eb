package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// callbackKind enumerates the closed set of inline button payloads.
type callbackKind int

const (
	cbUnknown callbackKind = iota
	cbMain
	cbHelpUsage
	cbAskAIInfo
	cbToolCalc
	cbToolTranslate
	cbInfoLocation
	cbGenMenu
	cbGenDoc
	cbExplain
	cbLawCode
	cbSection
	cbArticle
)

// callbackData is the parsed form of a callback payload. It is decoded
// exactly once at the transport boundary; handlers switch on kind and
// read only the fields their kind carries. Anything malformed or stale
// decodes to cbUnknown and no-ops.
type callbackData struct {
	kind       callbackKind
	lawCode    string
	sectionIdx int
	articleID  uint32
	docType    string
}

func parseCallback(data string) callbackData {
	switch data {
	case "main":
		return callbackData{kind: cbMain}
	case "help_usage":
		return callbackData{kind: cbHelpUsage}
	case "ask_ai_info":
		return callbackData{kind: cbAskAIInfo}
	case "tool_calc":
		return callbackData{kind: cbToolCalc}
	case "tool_translate":
		return callbackData{kind: cbToolTranslate}
	case "info_location":
		return callbackData{kind: cbInfoLocation}
	case "menu_gen":
		return callbackData{kind: cbGenMenu}
	}

	switch {
	case strings.HasPrefix(data, "gen_"):
		return callbackData{kind: cbGenDoc, docType: strings.TrimPrefix(data, "gen_")}

	case strings.HasPrefix(data, "explain|"):
		id, err := parseArticleID(strings.TrimPrefix(data, "explain|"))
		if err != nil {
			return callbackData{}
		}
		return callbackData{kind: cbExplain, articleID: id}

	case strings.HasPrefix(data, "code_"):
		code := strings.TrimPrefix(data, "code_")
		if code == "" {
			return callbackData{}
		}
		return callbackData{kind: cbLawCode, lawCode: code}

	case strings.HasPrefix(data, "sect|"):
		parts := strings.Split(data, "|")
		if len(parts) != 3 || parts[1] == "" {
			return callbackData{}
		}
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 {
			return callbackData{}
		}
		return callbackData{kind: cbSection, lawCode: parts[1], sectionIdx: idx}

	case strings.HasPrefix(data, "art|"):
		id, err := parseArticleID(strings.TrimPrefix(data, "art|"))
		if err != nil {
			return callbackData{}
		}
		return callbackData{kind: cbArticle, articleID: id}
	}

	return callbackData{}
}

func parseArticleID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

// Encoding helpers keep button construction and parsing in one file so
// the payload grammar cannot drift.

func lawCodeCallback(code string) string {
	return "code_" + code
}

func sectionCallback(lawCode string, idx int) string {
	return fmt.Sprintf("sect|%s|%d", lawCode, idx)
}

func articleCallback(id uint32) string {
	return fmt.Sprintf("art|%d", id)
}

func explainCallback(id uint32) string {
	return fmt.Sprintf("explain|%d", id)
}
