package uci

import (
	"fmt"
	"strconv"
	"strings"
)

// noMoveTokens are the two UCI spellings engines use to say "no move available."
var noMoveTokens = map[string]bool{
	"0000":   true,
	"(none)": true,
}

// isNoMove reports whether a bestmove token denotes "no move."
func isNoMove(token string) bool {
	return noMoveTokens[strings.ToLower(token)]
}

func cmdUCI() string { return "uci" }

func cmdIsReady() string { return "isready" }

func cmdSetOption(name, value string) string {
	return fmt.Sprintf("setoption name %s value %s", name, value)
}

func cmdPosition(fen string, moves []string) string {
	var b strings.Builder
	b.WriteString("position fen ")
	b.WriteString(fen)
	if len(moves) > 0 {
		b.WriteString(" moves ")
		b.WriteString(strings.Join(moves, " "))
	}
	return b.String()
}

func cmdGoMoveTime(timeMs int, searchMoves []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "go movetime %d", timeMs)
	if len(searchMoves) > 0 {
		b.WriteString(" searchmoves ")
		b.WriteString(strings.Join(searchMoves, " "))
	}
	return b.String()
}

func cmdGoDepth(depth int) string {
	return fmt.Sprintf("go depth %d", depth)
}

func cmdStop() string { return "stop" }

func cmdQuit() string { return "quit" }

// bestMoveLine is the parsed form of a "bestmove M [ponder P]" line.
type bestMoveLine struct {
	Move   string
	Ponder string
	None   bool
}

func parseBestMove(line string) (bestMoveLine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return bestMoveLine{}, false
	}
	out := bestMoveLine{Move: fields[1]}
	if isNoMove(out.Move) {
		out.None = true
	}
	for i := 2; i < len(fields)-1; i++ {
		if fields[i] == "ponder" {
			out.Ponder = fields[i+1]
		}
	}
	return out, true
}

// infoLine is the subset of a "info ..." line we care about.
type infoLine struct {
	Depth      int
	HasDepth   bool
	CentipawnP *int
	MateP      *int
	Nodes      uint64
	TimeMs     uint64
	PV         []string
}

func parseInfoLine(line string) (infoLine, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return infoLine{}, false
	}
	var out infoLine
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				if d, err := strconv.Atoi(fields[i+1]); err == nil {
					out.Depth = d
					out.HasDepth = true
				}
				i++
			}
		case "nodes":
			if i+1 < len(fields) {
				if n, err := strconv.ParseUint(fields[i+1], 10, 64); err == nil {
					out.Nodes = n
				}
				i++
			}
		case "time":
			if i+1 < len(fields) {
				if t, err := strconv.ParseUint(fields[i+1], 10, 64); err == nil {
					out.TimeMs = t
				}
				i++
			}
		case "score":
			if i+1 < len(fields) {
				switch fields[i+1] {
				case "cp":
					if i+2 < len(fields) {
						if v, err := strconv.Atoi(fields[i+2]); err == nil {
							out.CentipawnP = &v
						}
						i += 2
					}
				case "mate":
					if i+2 < len(fields) {
						if v, err := strconv.Atoi(fields[i+2]); err == nil {
							out.MateP = &v
						}
						i += 2
					}
				}
			}
		case "pv":
			out.PV = append([]string{}, fields[i+1:]...)
			i = len(fields)
		}
	}
	return out, true
}
