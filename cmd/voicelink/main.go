// voicelink is a terminal VoiceLink client. It talks to the signaling
// server for accounts, contacts, chat, and call setup, and runs the
// peer-to-peer media session with microphone capture and speaker
// playback when a call starts.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/opd-ai/voicelink/client"
	"github.com/opd-ai/voicelink/device"
	"github.com/opd-ai/voicelink/media"
	"github.com/opd-ai/voicelink/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var serverAddr, logLevel string

	flagSet := pflag.NewFlagSet("voicelink", pflag.ContinueOnError)
	flagSet.StringVar(&serverAddr, "server", "127.0.0.1:7312", "signaling server address")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(level)

	app := newApp()

	cfg := client.DefaultConfig()
	cfg.ServerAddr = serverAddr
	cfg.Events = app
	cfg.NewSession = app.newSession

	app.client = client.New(cfg)
	if err := app.client.Connect(context.Background()); err != nil {
		return err
	}
	defer app.client.Close()

	fmt.Println("connected; type 'help' for commands")
	return app.commandLoop(os.Stdin)
}

// app ties the command loop, event printing, and media wiring together.
type app struct {
	client *client.Client
	client.NopEvents

	mu      sync.Mutex
	session *media.Session
	mic     *device.Microphone

	disconnected chan struct{}
}

func newApp() *app {
	return &app{disconnected: make(chan struct{})}
}

// newSession opens a media session wired to the local audio devices.
// Without a microphone the call still works one-way.
func (a *app) newSession(group string) (client.CallSession, error) {
	cfg := media.DefaultConfig()
	cfg.NewAudioSink = device.NewSpeakerSink
	cfg.Monitor = (*printMonitor)(a)

	a.mu.Lock()
	if a.mic == nil {
		mic, err := device.OpenMicrophone()
		if err != nil {
			logrus.WithError(err).Warn("No microphone, sending no voice")
		} else {
			a.mic = mic
		}
	}
	if a.mic != nil {
		cfg.Audio = a.mic
	}
	a.mu.Unlock()

	session, err := media.NewSession(cfg, group)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return session, nil
}

func (a *app) mediaSession() *media.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *app) commandLoop(input *os.File) error {
	scanner := bufio.NewScanner(input)
	for {
		select {
		case <-a.disconnected:
			return fmt.Errorf("server connection lost")
		default:
		}

		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "quit" {
			return nil
		}
		if err := a.dispatch(fields[0], fields[1:]); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func (a *app) dispatch(command string, args []string) error {
	switch command {
	case "help":
		printHelp()
		return nil
	case "register":
		if len(args) != 2 {
			return fmt.Errorf("usage: register <name> <password>")
		}
		return a.client.Register(args[0], args[1])
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <name> <password>")
		}
		return a.client.Login(args[0], args[1])
	case "call":
		if len(args) != 1 {
			return fmt.Errorf("usage: call <name>")
		}
		return a.client.Call(args[0])
	case "stopcall":
		return a.client.StopCalling()
	case "accept":
		return a.client.Accept()
	case "reject":
		return a.client.Reject()
	case "join":
		if len(args) != 1 {
			return fmt.Errorf("usage: join <group>")
		}
		return a.client.JoinGroupCall(args[0])
	case "leave":
		return a.client.LeaveCall()
	case "leavegroup":
		if len(args) != 1 {
			return fmt.Errorf("usage: leavegroup <group>")
		}
		return a.client.LeaveGroup(args[0])
	case "contacts":
		for _, contact := range a.client.Contacts() {
			state := "offline"
			if contact.Online {
				state = "online"
			}
			fmt.Printf("  %s (%s)\n", contact.Name, state)
		}
		for _, name := range a.client.PendingContacts() {
			fmt.Printf("  %s (pending request)\n", name)
		}
		return nil
	case "addcontact":
		if len(args) != 1 {
			return fmt.Errorf("usage: addcontact <name>")
		}
		return a.client.AddContact(args[0])
	case "acceptcontact":
		if len(args) != 1 {
			return fmt.Errorf("usage: acceptcontact <name>")
		}
		return a.client.AcceptContact(args[0])
	case "rejectcontact":
		if len(args) != 1 {
			return fmt.Errorf("usage: rejectcontact <name>")
		}
		return a.client.RejectContact(args[0])
	case "delcontact":
		if len(args) != 1 {
			return fmt.Errorf("usage: delcontact <name>")
		}
		return a.client.DeleteContact(args[0])
	case "msg":
		if len(args) < 2 {
			return fmt.Errorf("usage: msg <contact> <text>")
		}
		return a.client.SendChatText(&client.Contact{Name: args[0]}, strings.Join(args[1:], " "))
	case "whois":
		if len(args) != 1 {
			return fmt.Errorf("usage: whois <name>")
		}
		return a.client.RequestUserInfo(args[0])
	case "mic":
		return a.toggle(args, func(s *media.Session, on bool) error {
			s.SetVoiceActive(on)
			return nil
		})
	case "camera":
		return a.toggle(args, func(s *media.Session, on bool) error {
			s.SetCameraActive(on)
			return a.client.SetCameraSharing(on)
		})
	case "screen":
		return a.toggle(args, func(s *media.Session, on bool) error {
			s.SetScreenActive(on)
			return a.client.SetScreenSharing(on)
		})
	default:
		return fmt.Errorf("unknown command %q, type 'help'", command)
	}
}

func (a *app) toggle(args []string, apply func(*media.Session, bool) error) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("expected 'on' or 'off'")
	}
	session := a.mediaSession()
	if session == nil {
		return fmt.Errorf("not in a call")
	}
	return apply(session, args[0] == "on")
}

func printHelp() {
	fmt.Print(`commands:
  register <name> <password>    create an account
  login <name> <password>       sign in
  call <name>                   ring a user, or invite them to the current call
  stopcall | accept | reject    manage a ring
  join <group>                  ask to join a group's running call
  leave                         leave the current call
  leavegroup <group>            leave a call group for good
  contacts                      list contacts and pending requests
  addcontact / acceptcontact / rejectcontact / delcontact <name>
  msg <contact> <text>          send a chat message
  whois <name>                  look a user up
  mic | camera | screen on|off  toggle media sharing
  quit
`)
}

// Event callbacks print to the terminal.

func (a *app) CalledBy(callers []string, groupName string) {
	fmt.Printf("incoming call from %s (group %q); 'accept' or 'reject'\n",
		callers[len(callers)-1], groupName)
}

func (a *app) InvitedToCall(groupName string, inCall []string) {
	fmt.Printf("invited back into %q with %s; 'accept' or 'reject'\n",
		groupName, strings.Join(inCall, ", "))
}

func (a *app) CallStarted(groupName string) { fmt.Printf("call started in %q\n", groupName) }

func (a *app) CallEnded(groupName string) {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	fmt.Printf("call in %q ended\n", groupName)
}

func (a *app) CallRejected()               { fmt.Println("call rejected") }
func (a *app) CallingFailed(reason string) { fmt.Println("calling failed:", reason) }
func (a *app) StopBeingCalled()            { fmt.Println("caller gave up") }

func (a *app) ParticipantJoined(name string, _ []byte) { fmt.Println(name, "joined the call") }
func (a *app) ParticipantLeft(name string)             { fmt.Println(name, "left the call") }

func (a *app) ContactOnline(name string)    { fmt.Println(name, "is online") }
func (a *app) ContactOffline(name string)   { fmt.Println(name, "went offline") }
func (a *app) AskedToBeContact(name string) { fmt.Println(name, "wants to be your contact") }
func (a *app) Popup(text string)            { fmt.Println(text) }

func (a *app) ChatText(chatName, sender string, sentAt time.Time, text string) {
	fmt.Printf("[%s] %s %s: %s\n", chatName, sentAt.Local().Format("15:04"), sender, text)
}

func (a *app) UserInfo(info *signal.UserInfo) {
	switch {
	case !info.Exists:
		fmt.Printf("%s: no such user\n", info.Name)
	case info.Online:
		fmt.Printf("%s: online\n", info.Name)
	default:
		fmt.Printf("%s: offline\n", info.Name)
	}
}

func (a *app) Disconnected(err error) {
	fmt.Println("disconnected:", err)
	close(a.disconnected)
}

// printMonitor reports media activity on the terminal; frames are
// counted rather than rendered.
type printMonitor app

func (m *printMonitor) Speaking(name string, active bool) {
	if active {
		fmt.Println(name, "is speaking")
	}
}

func (m *printMonitor) CameraFrame(string, []byte) {}
func (m *printMonitor) ScreenFrame(string, []byte) {}
