// Command demo runs a small tool-calling conversation against whichever
// provider has an API key in the environment.
//
// Usage:
//
//	demo [prompt]
//
// The default prompt asks the model to use the calculator tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	ai "github.com/spetersoncode/cadence"
	"github.com/spetersoncode/cadence/agent"
	"github.com/spetersoncode/cadence/backend"
	"github.com/spetersoncode/cadence/backend/anthropic"
	"github.com/spetersoncode/cadence/backend/google"
	"github.com/spetersoncode/cadence/backend/openai"
	"github.com/spetersoncode/cadence/model"
	"github.com/spetersoncode/cadence/tool"
)

// CalcArgs defines the calculator tool's parameters.
type CalcArgs struct {
	Expression string `json:"expression" desc:"The arithmetic expression to evaluate, e.g. '2 + 2'" required:"true"`
}

func main() {
	godotenv.Load()
	ctx := context.Background()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.WarnLevel)
	if os.Getenv("DEBUG") != "" {
		log = log.Level(zerolog.DebugLevel)
	}

	adapter, chatModel, err := pickAdapter(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Provider: %s  Model: %s\n\n", adapter.Provider(), chatModel)

	registry := tool.NewRegistry()
	tool.MustRegisterFunc(registry, "calculator", "Evaluate an arithmetic expression",
		func(ctx context.Context, args CalcArgs, progress tool.Progress) (string, error) {
			result, err := evaluate(args.Expression)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%g", result), nil
		},
	)

	conv := agent.New(adapter,
		agent.WithModel(chatModel),
		agent.WithTools(registry),
		agent.WithSystemPrompt("You are a concise assistant. Use the calculator tool for any arithmetic."),
		agent.WithLogger(log),
	)

	prompt := "Calculate 2+2"
	if len(os.Args) > 1 {
		prompt = strings.Join(os.Args[1:], " ")
	}
	fmt.Printf("User: %s\n\n", prompt)

	run, err := conv.Prompt(ctx, prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	printed := 0
	for {
		ev, ok := run.Next()
		if !ok {
			break
		}
		switch ev.Type {
		case agent.MessageStart:
			if ev.Message.Role == ai.RoleAssistant {
				printed = 0
			}
		case agent.MessageUpdate:
			text := ev.Message.Text()
			if len(text) > printed {
				fmt.Print(text[printed:])
				printed = len(text)
			}
		case agent.MessageEnd:
			if ev.Message.Role == ai.RoleAssistant {
				text := ev.Message.Text()
				if len(text) > printed {
					fmt.Print(text[printed:])
				}
				if text != "" {
					fmt.Println()
				}
			}
		case agent.ToolExecutionStart:
			fmt.Printf("[tool %s: %v]\n", ev.ToolCall.Name, ev.ToolCall.Arguments)
		case agent.ToolExecutionEnd:
			fmt.Printf("[tool result: %s]\n", ev.ToolResult.Text())
		}
	}

	result := run.Result()
	fmt.Printf("\n%s after %d turn(s), cost $%.6f\n", result.State, result.Turns, result.Cost.Total)
	if result.Err != nil {
		fmt.Fprintln(os.Stderr, result.Err)
		os.Exit(1)
	}
}

func pickAdapter(ctx context.Context) (backend.Adapter, model.ChatModel, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return anthropic.New(key), model.DefaultClaudeModel, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return openai.New(key), model.DefaultGPTModel, nil
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		adapter, err := google.New(ctx, key)
		return adapter, model.DefaultGeminiModel, err
	}
	return nil, model.ChatModel{}, errors.New("no API key found; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GOOGLE_API_KEY")
}
