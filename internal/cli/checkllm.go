package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/config"
)

// LLM check request parameters.
const (
	checkLLMSystemPrompt = "You are a helpful assistant. You must answer only in Thai."
	checkLLMUserPrompt   = "Translate this to Thai: Hello world"
	checkLLMMaxTokens    = 512
	checkLLMTemperature  = 0.6
	checkLLMTopP         = 0.95
	checkLLMTimeout      = 30 * time.Second

	// maskedKeyLen is the number of key characters shown.
	maskedKeyLen = 10
)

// troubleshooting is printed when the check fails.
var troubleshooting = []string{
	"Check your internet connection",
	"Verify the API key is correct",
	"Check that the API endpoint is reachable from your network",
	"Try a VPN if you are behind a firewall",
	"Contact the provider's support if the issue persists",
}

// CheckLLMCmd creates the check-llm command.
func CheckLLMCmd(env *Env) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check-llm",
		Short: "Test the connection to the LLM translation endpoint",
		Long: `Send one short translation request to the OpenAI-compatible endpoint
configured under [translation] (Typhoon by default) and print the answer.

The API key is read from TYPHOON_API_KEY.`,
		Example: `  tt check-llm
  tt check-llm --config ./tt.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckLLM(cmd.Context(), env, configPath)
		},
	}
	addConfigFlag(cmd, &configPath)

	return cmd
}

// runCheckLLM performs the connectivity check.
func runCheckLLM(ctx context.Context, env *Env, configPath string) error {
	cfg, _, _, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}

	key := strings.TrimSpace(env.Getenv(config.EnvTyphoonKey))
	if key == "" {
		fmt.Fprintf(env.Stdout, "%s not found in the environment or .env file\n", config.EnvTyphoonKey)
		return fmt.Errorf("%w: %s (set it with: export %s=...)", ErrAPIKeyMissing, config.EnvTyphoonKey, config.EnvTyphoonKey)
	}
	fmt.Fprintf(env.Stdout, "Found API key: %s...\n", maskKey(key))
	fmt.Fprintf(env.Stdout, "Testing %s (model %s)...\n", cfg.Translation.BaseURL, cfg.Translation.Model)

	ctx, cancel := context.WithTimeout(ctx, checkLLMTimeout)
	defer cancel()

	client := env.ChatClientFactory.NewChatClient(cfg.Translation.BaseURL, key)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: cfg.Translation.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: checkLLMSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: checkLLMUserPrompt},
		},
		MaxTokens:   checkLLMMaxTokens,
		Temperature: checkLLMTemperature,
		TopP:        checkLLMTopP,
	})
	if err == nil && (len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "") {
		err = errors.New("response has no content")
	}
	if err != nil {
		if status := statusCode(err); status != 0 {
			fmt.Fprintf(env.Stdout, "Status: %d\n", status)
		}
		fmt.Fprintf(env.Stdout, "Error: %v\n", err)
		printTroubleshooting(env)
		return fmt.Errorf("%w: %w", ErrLLMCheckFailed, apierr.Classify(err))
	}

	fmt.Fprintln(env.Stdout, "Status: 200")
	fmt.Fprintf(env.Stdout, "Success! Response: %s\n", strings.TrimSpace(resp.Choices[0].Message.Content))
	return nil
}

// maskKey returns a prefix of key for display: at most maskedKeyLen
// characters and never more than half of the key.
func maskKey(key string) string {
	n := min(maskedKeyLen, len(key)/2)
	return key[:n]
}

// statusCode extracts the HTTP status of a go-openai error, or 0.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func printTroubleshooting(env *Env) {
	fmt.Fprintln(env.Stdout, "\nTroubleshooting suggestions:")
	for i, s := range troubleshooting {
		fmt.Fprintf(env.Stdout, "%d. %s\n", i+1, s)
	}
}
