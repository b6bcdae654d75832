package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"vpipe/internal/media"
	"vpipe/internal/services"
)

// Command names accepted in an action list.
const (
	CmdAppend       = "append"
	CmdAtempo       = "atempo"
	CmdAtempoWith   = "atempo-with"
	CmdAtempoVideo  = "atempo-video"
	CmdExtract      = "extract"
	CmdDissect      = "dissect"
	CmdDelay        = "delay"
	CmdHasten       = "hasten"
	CmdInspect      = "inspect"
	CmdReencode     = "reencode"
	CmdMerge        = "merge"
	CmdGenerateSubs = "generate-subs"
	CmdTranslate    = "translate"
)

// Action is one parsed pipeline step with its typed arguments. Which slices
// are populated depends on the command.
type Action struct {
	Name   string
	Floats []float64
	Ints   []int
	Strs   []string
}

// ParseActions decodes action tokens ("name" or "name=a,b") into typed
// actions. A repeated command name replaces the earlier occurrence in place,
// keeping its original position; last occurrence wins. That is the documented
// CLI contract, allowing later tokens to override earlier ones.
func ParseActions(tokens []string) ([]Action, error) {
	actions := make([]Action, 0, len(tokens))
	position := make(map[string]int, len(tokens))
	for _, token := range tokens {
		name, rawArgs, _ := strings.Cut(strings.TrimSpace(token), "=")
		var args []string
		if rawArgs != "" {
			args = strings.Split(rawArgs, ",")
		}
		action, err := buildAction(name, args)
		if err != nil {
			return nil, err
		}
		if at, ok := position[name]; ok {
			actions[at] = action
			continue
		}
		position[name] = len(actions)
		actions = append(actions, action)
	}
	return actions, nil
}

func buildAction(name string, args []string) (Action, error) {
	action := Action{Name: name}
	switch name {
	case CmdAtempo:
		// atempo=from,to | atempo=from | atempo (rates inferred/default).
		floats, err := floatArgs(name, args, 0, 2)
		if err != nil {
			return Action{}, err
		}
		if len(floats) == 1 {
			floats = append(floats, media.NTSCRate)
		}
		action.Floats = floats
	case CmdAtempoWith, CmdAtempoVideo, CmdDelay, CmdHasten:
		floats, err := floatArgs(name, args, 1, 1)
		if err != nil {
			return Action{}, err
		}
		action.Floats = floats
	case CmdExtract:
		// extract | extract=N | extract=audio|subtitle | extract=subtitle,N
		streamType, track, err := parseExtractArgs(args)
		if err != nil {
			return Action{}, err
		}
		action.Strs = []string{streamType}
		action.Ints = []int{track}
	case CmdReencode:
		if len(args) > 1 {
			return Action{}, parseError(name, "takes at most one quality argument")
		}
		quality := "1080p"
		if len(args) == 1 {
			quality = strings.TrimSpace(args[0])
		}
		action.Strs = []string{quality}
	case CmdMerge:
		if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
			return Action{}, parseError(name, "requires the data file path, e.g. merge=/path/to/data.mkv")
		}
		action.Strs = []string{strings.TrimSpace(args[0])}
	case CmdGenerateSubs:
		// generate-subs | generate-subs=spa
		if len(args) > 1 {
			return Action{}, parseError(name, "takes at most one language argument")
		}
		if len(args) == 1 {
			lang := strings.TrimSpace(args[0])
			if len(lang) != 3 {
				return Action{}, parseError(name, fmt.Sprintf("language %q must be an ISO 639-3 code", lang))
			}
			action.Strs = []string{lang}
		}
	case CmdTranslate:
		// translate=to | translate=to,from
		if len(args) == 0 || len(args) > 2 {
			return Action{}, parseError(name, "requires the target language, e.g. translate=spa or translate=spa,eng")
		}
		for _, lang := range args {
			lang = strings.TrimSpace(lang)
			if len(lang) != 3 {
				return Action{}, parseError(name, fmt.Sprintf("language %q must be an ISO 639-3 code", lang))
			}
			action.Strs = append(action.Strs, lang)
		}
	case CmdAppend, CmdDissect, CmdInspect:
		if len(args) > 0 {
			return Action{}, parseError(name, "takes no arguments")
		}
	default:
		return Action{}, services.Wrap(services.ErrInvalidInput, "actions", "parse",
			fmt.Sprintf("unknown command %q", name), nil)
	}
	return action, nil
}

func parseExtractArgs(args []string) (string, int, error) {
	streamType := "audio"
	track := AllTracks
	switch len(args) {
	case 0:
	case 1:
		arg := strings.TrimSpace(args[0])
		if n, err := strconv.Atoi(arg); err == nil {
			track = n
		} else if arg == "audio" || arg == "subtitle" {
			streamType = arg
		} else {
			return "", 0, parseError(CmdExtract, fmt.Sprintf("argument %q is neither a track number nor audio/subtitle", arg))
		}
	case 2:
		streamType = strings.TrimSpace(args[0])
		if streamType != "audio" && streamType != "subtitle" {
			return "", 0, parseError(CmdExtract, fmt.Sprintf("stream type %q must be audio or subtitle", streamType))
		}
		n, err := strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil {
			return "", 0, parseError(CmdExtract, fmt.Sprintf("track %q is not an integer", args[1]))
		}
		track = n
	default:
		return "", 0, parseError(CmdExtract, "takes at most two arguments")
	}
	return streamType, track, nil
}

func floatArgs(name string, args []string, lo, hi int) ([]float64, error) {
	if len(args) < lo || len(args) > hi {
		return nil, parseError(name, fmt.Sprintf("expects between %d and %d numeric arguments, got %d", lo, hi, len(args)))
	}
	floats := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return nil, parseError(name, fmt.Sprintf("argument %q is not a number", arg))
		}
		floats = append(floats, v)
	}
	return floats, nil
}

func parseError(name, message string) error {
	return services.Wrap(services.ErrInvalidInput, "actions", "parse", name+": "+message, nil)
}
