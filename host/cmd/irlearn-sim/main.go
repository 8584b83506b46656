package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/profile"

	"irlearn/core"
	"irlearn/host/sim"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [duration file]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Reads edge durations in microseconds, whitespace separated, from the file or stdin.")
		flag.PrintDefaults()
	}
	repeat := flag.Int("repeat", 1, "transmissions to replay after learning")
	times := flag.Int("times", 2, "how often the recording is played to the receiver")
	eeprom := flag.String("eeprom", "", "EEPROM image `file`, loaded at boot and saved on exit")
	debug := flag.Bool("debug", false, "print firmware debug output and the event log")
	prof := flag.String("profile", "", "write a `cpu` or `mem` profile to the current directory")
	flag.Parse()

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *prof)
		os.Exit(2)
	}

	if err := run(os.Stdout, *repeat, *times, *eeprom, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, repeat, times int, eepromFile string, debug bool) error {
	if repeat < 0 || repeat > 255 {
		return fmt.Errorf("repeat %d out of range", repeat)
	}

	in := io.Reader(os.Stdin)
	if flag.NArg() >= 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	recording, err := readDurations(in)
	if err != nil {
		return err
	}

	mem := core.NewMemoryEEPROM(sim.EEPROMSize)
	if eepromFile != "" {
		if err := loadImage(eepromFile, mem); err != nil {
			return err
		}
	}

	if debug {
		core.SetDebugWriter(func(s string) { fmt.Fprintln(w, "[fw]", s) })
		core.SetDebugEnabled(true)
	}

	rig := sim.NewRigWithEEPROM(mem)
	if err := rig.Device.Boot(); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	var played []uint32
	for i := 0; i < times; i++ {
		played = append(played, recording...)
	}
	state := rig.Learn(played)
	fmt.Fprintf(w, "capture: %s after %d us\n", state, rig.Clock.Now())

	f := rig.Device.Frame()
	fmt.Fprintf(w, "frame: %d edges, %d durations\n", f.Len(), f.TimesCount())
	for i, t := range f.Times() {
		fmt.Fprintf(w, "  t%-2d %6d us\n", i, t)
	}

	waits, ok := rig.Replay(uint8(repeat))
	if !ok {
		fmt.Fprintln(w, "replay: nothing to send")
	} else {
		fmt.Fprintf(w, "replay: %d edges\n", len(waits))
		for i, d := range waits {
			fmt.Fprintf(w, "%d", d)
			if (i+1)%16 == 0 || i == len(waits)-1 {
				fmt.Fprintln(w)
			} else {
				fmt.Fprint(w, " ")
			}
		}
	}

	if debug {
		for _, evt := range core.Events() {
			fmt.Fprintf(w, "[event] %10d %-14s v1=%d v2=%d\n", evt.Clock, core.EventName(evt.Kind), evt.Value1, evt.Value2)
		}
	}

	if eepromFile != "" {
		return os.WriteFile(eepromFile, mem.Bytes(), 0o644)
	}
	return nil
}

// readDurations parses whitespace separated microsecond values
func readDurations(r io.Reader) ([]uint32, error) {
	var out []uint32
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		v, err := strconv.ParseUint(scanner.Text(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("duration %d: %w", len(out)+1, err)
		}
		out = append(out, uint32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no durations")
	}
	return out, nil
}

// loadImage copies an existing EEPROM image into mem. A missing file
// leaves the memory erased.
func loadImage(path string, mem *core.MemoryEEPROM) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) > len(mem.Bytes()) {
		return fmt.Errorf("%s: image larger than %d bytes", path, len(mem.Bytes()))
	}
	copy(mem.Bytes(), data)
	return nil
}
