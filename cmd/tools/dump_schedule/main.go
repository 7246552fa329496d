package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/app"
	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/config"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/normalize"
)

const requestTimeout = 2 * time.Minute

var (
	format = flag.String("format", "agenda", "Output format: agenda, cards, content or ics")
	day    = flag.String("day", "", "Restrict agenda/cards output to one day (Wednesday, Thursday, Friday)")
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	days, err := selectDays(*day)
	if err != nil {
		logger.Fatal("invalid -day", zap.Error(err))
	}

	ids, err := app.LoadIdentifierTables(cfg.CMS.IDMapFile)
	if err != nil {
		logger.Fatal("failed to load identifier tables", zap.Error(err))
	}

	client, err := cms.NewClient(cms.ClientConfig{
		BaseURL: cfg.CMS.BaseURL,
		Tokens:  cfg.CMS.Tokens,
		Timeout: cfg.CMS.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create CMS client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	fetcher := cms.NewFetcher(client, cms.FetcherConfig{
		CollectionIDs: cfg.CMS.CollectionIDs,
		PageSize:      cfg.CMS.PageSize,
	}, nil, nil, logger)

	raw := fetcher.FetchAll(ctx, true)
	for _, c := range raw.Failed() {
		logger.Warn("collection not loaded", zap.String("collection", c.String()), zap.Error(raw.Errors[c]))
	}

	content := normalize.New(ids).All(raw)
	builder := adapter.NewScheduleCardBuilder(cfg.Conference.Location)

	if err := render(os.Stdout, *format, content, builder, days, adapter.CalendarOptions{
		Name:     cfg.Conference.Name,
		Domain:   cfg.Conference.CalendarDomain,
		Location: cfg.Conference.Location,
	}); err != nil {
		logger.Fatal("failed to render output", zap.Error(err))
	}
}

func selectDays(label string) ([]domain.Day, error) {
	if strings.TrimSpace(label) == "" {
		return domain.ConferenceDays, nil
	}
	d, ok := domain.ParseDay(label)
	if !ok {
		return nil, fmt.Errorf("unknown day %q", label)
	}
	return []domain.Day{d}, nil
}

func render(
	w io.Writer,
	format string,
	content *normalize.Content,
	builder *adapter.ScheduleCardBuilder,
	days []domain.Day,
	calendar adapter.CalendarOptions,
) error {
	switch format {
	case "agenda":
		formatter := adapter.NewResponseFormatter()
		for _, d := range days {
			if _, err := fmt.Fprintln(w, formatter.FormatAgenda(d, builder.BuildScheduleCards(content.Schedule, d))); err != nil {
				return err
			}
		}
		return nil
	case "cards":
		out := make(map[domain.Day][]domain.ScheduleCard, len(days))
		for _, d := range days {
			out[d] = builder.BuildScheduleCards(content.Schedule, d)
		}
		return writeJSON(w, out)
	case "content":
		return writeJSON(w, content)
	case "ics":
		_, err := io.WriteString(w, adapter.ExportICS(content.Schedule, calendar))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
