package commands

import "context"

type HelpCommand struct {
	f Formatter
}

func NewHelpCommand(f Formatter) *HelpCommand {
	return &HelpCommand{f: f}
}

func (h *HelpCommand) Name() string {
	return "help"
}

func (h *HelpCommand) Aliases() []string {
	return []string{"help", "помощь", "start"}
}

func (h *HelpCommand) Handle(_ context.Context, req Request) ([]Reply, error) {
	if req.Alias == "start" {
		return []Reply{
			{Text: h.f.Translate("HelpCommand.introMsg")},
			{Text: h.f.Translate("HelpCommand.helpMsg")},
		}, nil
	}
	return []Reply{{Text: h.f.Translate("HelpCommand.helpMsg")}}, nil
}
