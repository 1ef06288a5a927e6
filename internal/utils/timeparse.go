package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	ErrInvalidTime = errors.New("couldn't recognize that time, try something like `tomorrow` or `3 days`")
	ErrPastTime    = errors.New("that time is in the past")
)

var shortTimeRegex = regexp.MustCompile(`^(?:(\d+)(?:years?|y))?\s?` +
	`(?:(\d+)(?:months?|mo))?\s?` +
	`(?:(\d+)(?:weeks?|w))?\s?` +
	`(?:(\d+)(?:days?|d))?\s?` +
	`(?:(\d+)(?:hours?|h))?\s?` +
	`(?:(\d+)(?:minutes?|mins?|m))?\s?` +
	`(?:(\d+)(?:seconds?|secs?|s))?\s?$`)

// ParseShortTime parses compact durations such as "1h30m" or "2w" relative to now.
func ParseShortTime(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}
	match := shortTimeRegex.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	var parts [7]int
	for i := range parts {
		if match[i+1] == "" {
			continue
		}
		value, err := strconv.Atoi(match[i+1])
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = value
	}

	result := now.AddDate(parts[0], parts[1], parts[2]*7+parts[3])
	result = result.Add(time.Duration(parts[4])*time.Hour +
		time.Duration(parts[5])*time.Minute +
		time.Duration(parts[6])*time.Second)
	return result, true
}

// ParseFutureTime accepts a short duration or a natural language time. The
// natural form is read in the user's fixed UTC offset. The result is in UTC.
func ParseFutureTime(text string, now time.Time, offsetHours int) (time.Time, error) {
	text = strings.TrimSpace(text)
	if parsed, ok := ParseShortTime(text, now); ok {
		if !parsed.After(now) {
			return time.Time{}, ErrPastTime
		}
		return parsed.UTC(), nil
	}

	if first, _ := firstRune(text); unicode.IsDigit(first) {
		text = "in " + text
	}

	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	result, err := parser.Parse(text, now.In(zone))
	if err != nil || result == nil {
		return time.Time{}, ErrInvalidTime
	}
	if !result.Time.After(now) {
		return time.Time{}, ErrPastTime
	}
	return result.Time.UTC(), nil
}

// DiscordTimestamp formats t with a Discord timestamp style such as "F" or "R".
func DiscordTimestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

func firstRune(text string) (rune, bool) {
	for _, r := range text {
		return r, true
	}
	return 0, false
}
