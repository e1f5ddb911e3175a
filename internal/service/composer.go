package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/gridguide/internal/domain"
)

// Token names one element of the composed-description order: a literal
// separator (1-8) or a field slot (9-20) resolved from the episode.
type Token int

const (
	TokenBullet Token = iota + 1
	TokenNewline
	TokenHyphen
	TokenSpace
	TokenColon
	TokenPipe
	TokenSlash
	TokenComma
	TokenPlot
	TokenFlags
	TokenReserved // kept for order compatibility, always resolves empty
	TokenTags
	TokenSeasonEpisode
	TokenRating
	TokenFirstAired
	TokenSeriesTitle
	TokenSubtitle
	TokenQuotedSubtitle
	TokenCast
	TokenYear
)

// IsSeparator reports whether the token is a literal separator.
func (t Token) IsSeparator() bool {
	return t >= TokenBullet && t <= TokenComma
}

var separatorText = map[Token]string{
	TokenBullet:  "• ",
	TokenNewline: "\n",
	TokenHyphen:  "– ",
	TokenSpace:   " ",
	TokenColon:   ": ",
	TokenPipe:    "| ",
	TokenSlash:   "∕ ",
	TokenComma:   ", ",
}

// TokensFromInts converts a configured numeric order into tokens.
func TokensFromInts(order []int) []Token {
	tokens := make([]Token, 0, len(order))
	for _, id := range order {
		tokens = append(tokens, Token(id))
	}
	return tokens
}

// ResolveToken maps one token to its output string for the given episode.
// Field tokens resolve to "" when the field is absent; every nonempty field
// value carries its own trailing space.
func ResolveToken(episode *domain.Episode, token Token) string {
	if token.IsSeparator() {
		return separatorText[token]
	}

	switch token {
	case TokenPlot:
		if episode.Desc != "" {
			return episode.Desc + " "
		}
	case TokenFlags:
		if len(episode.Flags) > 0 {
			return strings.ToUpper(strings.Join(episode.Flags, " - ")) + " "
		}
	case TokenTags:
		if len(episode.Tags) > 0 {
			return strings.ToUpper(strings.Join(episode.Tags, " | ")) + " "
		}
	case TokenSeasonEpisode:
		return seasonEpisodeText(episode.Season, episode.Number)
	case TokenRating:
		if episode.Rating != "" {
			return episode.Rating + " "
		}
	case TokenFirstAired:
		if episode.OriginalAirDate > 0 {
			aired := time.Unix(episode.OriginalAirDate, 0).UTC()
			return "First aired: " + aired.Format("January 02, 2006") + " "
		}
	case TokenSeriesTitle:
		if episode.Show != "" {
			return episode.Show + " "
		}
	case TokenSubtitle:
		if episode.Title != "" {
			return episode.Title + " "
		}
	case TokenQuotedSubtitle:
		if episode.Title != "" {
			return "\"" + episode.Title + "\" "
		}
	case TokenCast:
		if len(episode.Cast) > 0 {
			return "Cast: " + strings.Join(episode.Cast, ", ") + " "
		}
	case TokenYear:
		if episode.Year != "" {
			return "Released: " + episode.Year + " "
		}
	}
	return ""
}

func seasonEpisodeText(season, number string) string {
	s, okS := numberValue(season)
	e, okE := numberValue(number)
	if !okS || !okE {
		return ""
	}
	return "Season " + strconv.Itoa(s) + " - Episode " + strconv.Itoa(e) + " "
}

// numberValue parses a season or episode number, stripping any leading
// letter prefix ("S3" -> 3, "05" -> 5).
func numberValue(raw string) (int, bool) {
	trimmed := strings.TrimLeftFunc(raw, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Compose synthesizes the description for one episode from the configured
// token order: tokens resolving empty are dropped, trailing separators are
// trimmed, then the remaining tokens are walked with the newline-supersedes
// collapse rule and concatenated.
func Compose(episode *domain.Episode, order []Token) string {
	type resolved struct {
		token Token
		text  string
	}

	kept := make([]resolved, 0, len(order))
	for _, token := range order {
		text := ResolveToken(episode, token)
		if text == "" {
			continue
		}
		kept = append(kept, resolved{token: token, text: text})
	}

	for len(kept) > 0 && kept[len(kept)-1].token.IsSeparator() {
		kept = kept[:len(kept)-1]
	}

	var accepted []string
	var prev Token
	for _, r := range kept {
		if r.token.IsSeparator() && prev.IsSeparator() &&
			r.token == TokenNewline && len(accepted) >= 2 {
			// A newline supersedes whatever separator immediately preceded it.
			accepted[len(accepted)-1] = r.text
		} else {
			accepted = append(accepted, r.text)
		}
		prev = r.token
	}

	return strings.Join(accepted, "")
}
