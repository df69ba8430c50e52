// Command chat is a local REPL against the conversation engine. It keeps
// everything in memory, so it needs nothing but a Gemini API key.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/fintalk/internal/category"
	"github.com/dvloznov/fintalk/internal/config"
	"github.com/dvloznov/fintalk/internal/conversation"
	"github.com/dvloznov/fintalk/internal/extract"
	"github.com/dvloznov/fintalk/internal/logger"
	"github.com/dvloznov/fintalk/internal/store/inmemory"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "local", "user id for this session")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	model, err := extract.NewGeminiModel(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini model")
	}

	st := inmemory.New()
	extractor := extract.NewClient(model, cfg.ExtractTimeoutDuration(), log)
	registry := category.NewRegistry(st, cfg.SimilarityFloor)
	engine := conversation.NewEngine(extractor, registry, st, conversation.Config{
		Currency:   cfg.Currency,
		SessionTTL: cfg.SessionTTLDuration(),
	}, log)

	fmt.Println("fintalk chat - describe a transaction, e.g. \"coffee 5.50\"")
	fmt.Println("Commands: /confirm /cancel /new /select N /edit field=value /quit")

	const chatID = "repl"
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		out, err := dispatch(ctx, engine, chatID, *userID, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		render(out)
	}
}

func dispatch(ctx context.Context, engine *conversation.Engine, chatID, userID, line string) (conversation.Outbound, error) {
	now := time.Now()
	if !strings.HasPrefix(line, "/") {
		return engine.HandleMessage(ctx, chatID, userID, line, now)
	}

	cmd, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	switch cmd {
	case "confirm", "cancel":
		act, err := conversation.ParseAction(cmd, "")
		if err != nil {
			return nil, err
		}
		return engine.HandleAction(ctx, chatID, userID, act, now)
	case "new":
		return engine.HandleAction(ctx, chatID, userID, conversation.Action{Kind: conversation.ActionCreateNew}, now)
	case "select":
		act, err := conversation.ParseAction("select", rest)
		if err != nil {
			return nil, err
		}
		return engine.HandleAction(ctx, chatID, userID, act, now)
	case "edit":
		act, err := conversation.ParseAction("edit", rest)
		if err != nil {
			return nil, err
		}
		return engine.HandleAction(ctx, chatID, userID, act, now)
	default:
		return nil, fmt.Errorf("unknown command /%s", cmd)
	}
}

func render(out conversation.Outbound) {
	switch v := out.(type) {
	case conversation.PlainText:
		fmt.Println(v.Text)
	case conversation.ConfirmationPrompt:
		s := v.Summary
		fmt.Printf("%s %.2f %s | %s | category: %s", s.Direction, s.Amount, s.Currency, s.Date, s.Category)
		if s.Note != "" {
			fmt.Printf(" | note: %s", s.Note)
		}
		fmt.Println()
		if v.Retry {
			fmt.Println("Saving failed last time. /confirm to retry, /cancel to discard.")
		} else {
			fmt.Println("/confirm to save, /edit field=value to amend, /cancel to discard.")
		}
	case conversation.ChoicePrompt:
		if len(v.Candidates) > 0 {
			fmt.Println("Which category did you mean?")
			for _, c := range v.Candidates {
				fmt.Printf("  /select %d  %s\n", c.Index, c.Name)
			}
		}
		fmt.Printf("Or /new to create %q, or type a different category name.\n", v.SuggestedName)
	case conversation.CorrectionPrompt:
		fmt.Println("I couldn't save that yet:")
		for _, d := range v.Defects {
			fmt.Println("  -", d)
		}
		fmt.Println("Please resend the corrected transaction.")
	}
}
