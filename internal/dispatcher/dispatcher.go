package dispatcher

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"crypto-daddy-bot/internal/commands"
)

// commandRe is /<word>, an optional @botname and optional params that may
// span several lines.
var commandRe = regexp.MustCompile(`(?s)^/([^\s@]+)(?:@[\w\-]*)?(?:\s+(.*))?$`)

const executionErrorMsg = "common.executionError"

type Translator interface {
	Translate(msgID string) string
}

// Message is an incoming chat message.
type Message struct {
	ChatID    int64
	MessageID int
	From      string
	Text      string
}

// Result is what a recognized command produced.
type Result struct {
	Command string
	Replies []commands.Reply
	// Err is the handler error, already replaced by a generic reply.
	Err error
}

type route struct {
	alias string
	key   string
	cmd   commands.Command
}

type Dispatcher struct {
	t      Translator
	routes []route
}

func New(t Translator, cmds ...commands.Command) *Dispatcher {
	d := &Dispatcher{t: t}
	for _, cmd := range cmds {
		d.Register(cmd)
	}
	return d
}

// Register adds the aliases of cmd. Aliases registered earlier take precedence.
func (d *Dispatcher) Register(cmd commands.Command) {
	for _, alias := range cmd.Aliases() {
		d.routes = append(d.routes, route{alias: alias, key: Fold(alias), cmd: cmd})
	}
}

// Match finds the command addressed by text.
func (d *Dispatcher) Match(text string) (commands.Command, commands.Request, bool) {
	m := commandRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, commands.Request{}, false
	}

	key := Fold(m[1])
	for _, r := range d.routes {
		if r.key == key {
			return r.cmd, commands.Request{Alias: r.alias, Params: strings.TrimSpace(m[2])}, true
		}
	}
	return nil, commands.Request{}, false
}

// Dispatch runs the command addressed by msg. Text that is not a known
// command is ignored. A failing command gets the generic error reply.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) (Result, bool) {
	cmd, req, ok := d.Match(msg.Text)
	if !ok {
		return Result{}, false
	}
	req.ChatID = msg.ChatID
	req.MessageID = msg.MessageID

	logger := log.WithFields(log.Fields{
		"service": cmd.Name(),
		"chat_id": msg.ChatID,
	})
	logger.Debugf("received command %q from %s", msg.Text, msg.From)

	replies, err := cmd.Handle(ctx, req)
	if err != nil {
		logger.WithError(err).Error("command failed")
		replies = []commands.Reply{{Text: d.t.Translate(executionErrorMsg)}}
	}

	return Result{Command: cmd.Name(), Replies: replies, Err: err}, true
}

// Fold normalizes an alias for comparison: accents are dropped and case is folded.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Fold().String(folded)
}
