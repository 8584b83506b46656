package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/shlex"

	"irlearn/core"
	"irlearn/host/console"
	"irlearn/host/publish"
	"irlearn/host/serial"
)

var (
	device   = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud     = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	broker   = flag.String("broker", "tcp://localhost:1883", "MQTT broker for publish")
	topic    = flag.String("topic", publish.DefaultTopic, "MQTT topic for publish")
	clientID = flag.String("client-id", "irlearn-host", "MQTT client ID")
	verbose  = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	fmt.Println("irlearn host - pulse train learner console")
	fmt.Println("==========================================")

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to device on %s...\n", *device)
	client, err := console.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Println("Connected successfully!")
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")

	sh := &shell{client: client, out: os.Stdout}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if quit := sh.exec(scanner.Text()); quit {
			fmt.Println("Goodbye!")
			return
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// shell runs one interactive command line at a time
type shell struct {
	client *console.Client
	out    io.Writer
}

// exec runs line and reports whether the user asked to quit
func (s *shell) exec(line string) bool {
	parts, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		s.printHelp()

	case "dict":
		s.report(s.dictionary())

	case "status":
		s.report(s.status())

	case "dump":
		s.report(s.dump())

	case "learn":
		s.report(s.client.RequestLearn())
		fmt.Fprintln(s.out, "Learning: send the signal twice within 10 seconds")

	case "send":
		s.report(s.client.RequestSend())

	case "events":
		s.report(s.events())

	case "publish":
		name := *device
		if len(parts) > 1 {
			name = parts[1]
		}
		s.report(s.publish(name))

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for available commands)\n", parts[0])
	}
	return false
}

func (s *shell) report(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")
	fmt.Fprintln(s.out, "  help             - Show this help message")
	fmt.Fprintln(s.out, "  dict             - Print the console message dictionary")
	fmt.Fprintln(s.out, "  status           - Show device mode and stored frame size")
	fmt.Fprintln(s.out, "  dump             - Print the stored frame")
	fmt.Fprintln(s.out, "  learn            - Start learning a signal")
	fmt.Fprintln(s.out, "  send             - Replay the stored signal")
	fmt.Fprintln(s.out, "  events           - Print the device event log")
	fmt.Fprintln(s.out, "  publish [name]   - Publish the stored frame over MQTT")
	fmt.Fprintln(s.out, "  quit/exit/q      - Exit the program")
	fmt.Fprintln(s.out)
}

func (s *shell) dictionary() error {
	dict, err := s.client.Dictionary()
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, dict)
	return nil
}

func (s *shell) status() error {
	st, err := s.client.Status()
	if err != nil {
		return fmt.Errorf("get_status: %w", err)
	}
	fmt.Fprintf(s.out, "mode=%s stored=%v edges=%d durations=%d\n",
		st.Mode, st.HasFrame(), st.Length, st.TimesCount)
	return nil
}

func (s *shell) dump() error {
	f, err := s.client.Frame()
	if err != nil {
		return fmt.Errorf("get_frame: %w", err)
	}
	printFrame(s.out, f)
	return nil
}

func (s *shell) events() error {
	events, err := s.client.Events()
	if err != nil {
		return fmt.Errorf("get_events: %w", err)
	}
	for _, evt := range events {
		fmt.Fprintf(s.out, "%10d %-14s v1=%d v2=%d\n", evt.Clock, core.EventName(evt.Kind), evt.Value1, evt.Value2)
	}
	if len(events) == 0 {
		fmt.Fprintln(s.out, "no events")
	}
	return nil
}

func (s *shell) publish(name string) error {
	f, err := s.client.Frame()
	if err != nil {
		return fmt.Errorf("get_frame: %w", err)
	}
	if f.Len() == 0 {
		return fmt.Errorf("nothing learned yet")
	}

	mc, err := publish.Connect(*broker, *clientID)
	if err != nil {
		return err
	}
	defer mc.Disconnect(250)

	if err := publish.NewPublisher(mc, *topic).PublishFrame(name, f); err != nil {
		return err
	}
	if *verbose {
		fmt.Fprintf(s.out, "Published %d edges to %s on %s\n", f.Len(), *topic, *broker)
	}
	return nil
}

func printFrame(w io.Writer, f *core.Frame) {
	fmt.Fprintf(w, "edges: %d\n", f.Len())
	for i, t := range f.Times() {
		fmt.Fprintf(w, "  t%-2d %6d us\n", i, t)
	}
	fmt.Fprint(w, "durations:")
	for i, d := range f.Durations() {
		if i%8 == 0 {
			fmt.Fprint(w, "\n ")
		}
		fmt.Fprintf(w, " %6d", d)
	}
	fmt.Fprintln(w)
}
