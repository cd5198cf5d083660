package apierror

import "golang.org/x/text/language"

var (
	localeTags   = []language.Tag{language.English, language.Chinese}
	localeTables = []Messages{DefaultMessages, ChineseMessages}
	localeMatch  = language.NewMatcher(localeTags)
)

// MessagesFor picks the message table closest to the BCP 47 tags in locales,
// such as "zh-CN" or an Accept-Language value. It falls back to
// DefaultMessages.
func MessagesFor(locales ...string) Messages {
	_, idx := language.MatchStrings(localeMatch, locales...)
	return localeTables[idx]
}
