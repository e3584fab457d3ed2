package source

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"crypto-daddy-bot/internal/types"
	"crypto-daddy-bot/lib/helpers"
)

const (
	hashrateNoSite = "https://www.hashrate.no"
	hashrateNoURL  = hashrateNoSite + "/ETH"
)

var (
	hashrateTableRe = regexp.MustCompile(`(?s)w3-table(?P<content>.*?)</table`)
	hashrateRowRe   = regexp.MustCompile(
		`td.*?gpulist.*?href.*?'(?P<href>.*?)'` +
			`.*?/>(?P<title>.*?)</a>` +
			`.*?gpulist.*?gpulist.*?>(?P<hashrate>.*?)<` +
			`.*?gpulist.*?>(?P<power>.*?)<` +
			`.*?gpulist.*?gpulist.*?(?P<profit>\$.*?)<` +
			`.*?gpulist.*?>(?P<roi>.*?)<`,
	)
)

// HashrateNo scrapes GPU mining figures from hashrate.no.
type HashrateNo struct {
	BaseURL string

	requester
}

func NewHashrateNo(client *http.Client) *HashrateNo {
	return &HashrateNo{BaseURL: hashrateNoURL, requester: newRequester("hashrate.no", client)}
}

func (h *HashrateNo) GetGpus(ctx context.Context) ([]types.GpuEntry, error) {
	content, err := h.get(ctx, h.BaseURL, nil)
	if err != nil {
		return nil, err
	}

	table := hashrateTableRe.FindSubmatch(content)
	if table == nil {
		return nil, parseError(h.name, "gpu table not found")
	}

	gpus := []types.GpuEntry{}
	for _, m := range hashrateRowRe.FindAllSubmatch(table[1], -1) {
		field := func(name string) string {
			return strings.TrimSpace(string(m[hashrateRowRe.SubexpIndex(name)]))
		}

		title := field("title")
		gpus = append(gpus, types.GpuEntry{
			Title:     title,
			SearchKey: helpers.SearchKey(title),
			Hashrate:  field("hashrate"),
			Power:     field("power"),
			Profit:    field("profit"),
			ROI:       field("roi"),
			Link:      hashrateNoSite + field("href") + "#:~:text=OVERCLOCKS",
		})
	}

	h.dump(gpus)
	return gpus, nil
}
