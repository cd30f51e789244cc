//go:build linux

package power

import (
	"github.com/warthog618/go-gpiocdev"
)

// OpenEnableLines requests the four node enable lines on chip as outputs.
//
// Each line keeps the level it already had, so restarting the service does
// not power-cycle running nodes. Either all four lines are returned or none
// remain requested.
func OpenEnableLines(chip, consumer string) ([NodeCount]Line, error) {
	var lines [NodeCount]Line

	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return lines, &Error{Code: ErrDeviceOpen, Message: "cannot open gpio chip", Target: chip, Cause: err}
	}
	defer c.Close()

	infos, err := chipLines(c)
	if err != nil {
		return lines, &Error{Code: ErrDeviceOpen, Message: "cannot read line table", Target: chip, Cause: err}
	}

	offsets, err := findOffsets(infos)
	if err != nil {
		return lines, err
	}

	for i, offset := range offsets {
		l, err := requestOutput(c, offset)
		if err != nil {
			closeLines(lines[:i])
			return [NodeCount]Line{}, &Error{
				Code:    ErrLineRequest,
				Message: "cannot request enable line",
				Target:  LineNames[i],
				Cause:   err,
			}
		}
		lines[i] = l
	}
	return lines, nil
}

func requestOutput(c *gpiocdev.Chip, offset int) (*gpiocdev.Line, error) {
	l, err := c.RequestLine(offset, gpiocdev.AsIs)
	if err != nil {
		return nil, err
	}
	level, err := l.Value()
	if err != nil {
		l.Close()
		return nil, err
	}
	if err := l.Reconfigure(gpiocdev.AsOutput(level)); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// ListLines describes every line of chip.
func ListLines(chip string) ([]LineInfo, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, &Error{Code: ErrDeviceOpen, Message: "cannot open gpio chip", Target: chip, Cause: err}
	}
	defer c.Close()

	infos, err := chipLines(c)
	if err != nil {
		return nil, &Error{Code: ErrDeviceOpen, Message: "cannot read line table", Target: chip, Cause: err}
	}
	return infos, nil
}

func chipLines(c *gpiocdev.Chip) ([]LineInfo, error) {
	infos := make([]LineInfo, 0, c.Lines())
	for offset := range c.Lines() {
		info, err := c.LineInfo(offset)
		if err != nil {
			return nil, err
		}
		infos = append(infos, LineInfo{
			Offset:   info.Offset,
			Name:     info.Name,
			Consumer: info.Consumer,
			Used:     info.Used,
		})
	}
	return infos, nil
}
