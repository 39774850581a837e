package referee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StartLine is sent to the first agent in place of an opponent move.
const StartLine = "START"

// ResultMarker identifies a control line that ends the game.
const ResultMarker = "RESULT"

// Color qualifies a move token.
type Color string

const (
	// ColorRed sows the red seeds of a hole.
	ColorRed Color = "R"

	// ColorBlue sows the blue seeds of a hole.
	ColorBlue Color = "B"

	// ColorTransparentRed sows transparent seeds played as red.
	ColorTransparentRed Color = "TR"

	// ColorTransparentBlue sows transparent seeds played as blue.
	ColorTransparentBlue Color = "TB"
)

var moveToken = regexp.MustCompile(`^(\d{1,2})(R|B|TR|TB)$`)

// Move is a parsed move token such as "15TB".
type Move struct {
	Pit   int
	Color Color
}

func (m Move) String() string {
	return strconv.Itoa(m.Pit) + string(m.Color)
}

// IsResult reports whether line is a RESULT control message.
func IsResult(line string) bool {
	return strings.Contains(line, ResultMarker)
}

// ValidMove reports whether line is syntactically acceptable from an agent:
// either a RESULT message, or 1–2 digits immediately followed by one of the
// color codes R, B, TR, TB with nothing before or after. It does not know
// the board; "0R" and "99TB" are accepted.
func ValidMove(line string) bool {
	if line == "" {
		return false
	}
	if IsResult(line) {
		return true
	}
	return moveToken.MatchString(line)
}

// ParseMove splits a move token into its pit number and color.
// RESULT messages are not moves and are rejected.
func ParseMove(line string) (Move, error) {
	m := moveToken.FindStringSubmatch(line)
	if m == nil {
		return Move{}, fmt.Errorf("referee: malformed move %q", line)
	}
	pit, err := strconv.Atoi(m[1])
	if err != nil {
		return Move{}, fmt.Errorf("referee: malformed move %q: %w", line, err)
	}
	return Move{Pit: pit, Color: Color(m[2])}, nil
}
