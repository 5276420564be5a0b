package commands

import (
	"fmt"
	"strings"

	"github.com/volley-protocol/volley-go/pkg/log"
)

// ParseLayerFlag converts a -layer flag value to a log.Layer.
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "controller":
		return log.LayerController, nil
	case "panel":
		return log.LayerPanel, nil
	case "service":
		return log.LayerService, nil
	default:
		return 0, fmt.Errorf("unknown layer %q (transport, wire, controller, panel, service)", s)
	}
}

// ParseCategoryFlag converts a -category flag value to a log.Category.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "control":
		return log.CategoryControl, nil
	case "state":
		return log.CategoryState, nil
	case "actuation":
		return log.CategoryActuation, nil
	case "timer":
		return log.CategoryTimer, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category %q (message, control, state, actuation, timer, error)", s)
	}
}

// ParseDirectionFlag converts a -direction flag value to a log.Direction.
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "local":
		return log.DirectionLocal, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (in, out, local)", s)
	}
}
