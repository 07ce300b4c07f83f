// Command cleanchain is the exporter-facing CLI: anchor trade documents,
// verify fingerprints, and inspect the trade ledger.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GangaMannan/CustomsClearnace/pkg/client"
)

// version is overridden at release time via -ldflags "-X main.version=...".
var version = "dev"

var (
	serviceURL string
	cfgFile    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cleanchain",
	Short: "CleanChain customs clearance CLI",
	Long: `cleanchain is the command-line interface for the CleanChain
clearance service.

Exporters anchor trade documents before shipment; customs validators
verify the fingerprint presented at the border against the shared
ledger and the content store.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.cleanchain")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serviceURL == "" {
			serviceURL = viper.GetString("service_url")
		}
		if serviceURL == "" {
			serviceURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.cleanchain/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service", "", "clearance service URL (default http://localhost:8080)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an SDK client with credentials from flags, config, or
// environment (CLEANCHAIN_NAME / CLEANCHAIN_SECRET).
func newClient() (*client.Client, error) {
	opts := []client.Option{}
	name := viper.GetString("name")
	secret := viper.GetString("secret")
	if name != "" {
		opts = append(opts, client.WithCredentials(name, secret))
	}
	if tok := viper.GetString("token"); tok != "" {
		opts = append(opts, client.WithToken(tok))
	}
	return client.New(serviceURL, opts...)
}

// ── submit ───────────────────────────────────────────────────────────────────

var (
	submitDeclared int64
	submitJSON     bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <document-file>",
	Short: "Anchor a trade document with its declared value",
	Long: `Submit fingerprints the document, stores it in the content
store, and commits the declaration to the trade ledger. The assigned
clearance channel is printed on success:

  cleanchain submit invoice.pdf --declared-value 9500

Re-submitting identical bytes with identical values is a no-op and
returns the original receipt.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().Int64Var(&submitDeclared, "declared-value", 0, "Declared invoice value in integer currency units (required)")
	submitCmd.Flags().BoolVar(&submitJSON, "json", false, "Print the full receipt as JSON")
	_ = submitCmd.MarkFlagRequired("declared-value")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := c.Submit(ctx, data, submitDeclared)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return fmt.Errorf("unauthorized: set name/secret in ~/.cleanchain/config.yaml or CLEANCHAIN_NAME/CLEANCHAIN_SECRET")
		}
		return err
	}

	if submitJSON {
		return printJSON(res)
	}

	fmt.Printf("Fingerprint: %s\n", res.Fingerprint)
	fmt.Printf("Locator:     %s\n", res.Locator)
	if res.GatewayURL != "" {
		fmt.Printf("Gateway:     %s\n", res.GatewayURL)
	}
	fmt.Printf("Channel:     %s\n", res.Channel)
	if res.Receipt.Reused {
		fmt.Println("Note: identical declaration was already anchored; original receipt returned.")
	}
	if res.Channel == "RED" {
		fmt.Println("Shipment flagged for physical inspection.")
	}
	return nil
}

// ── verify ───────────────────────────────────────────────────────────────────

var (
	verifyLocator string
	verifyJSON    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <fingerprint>",
	Short: "Verify an anchored fingerprint against the ledger and store",
	Long: `Verify looks the fingerprint up on the trade ledger, retrieves
the document bytes, and confirms they hash back to the fingerprint.

Exit status is 0 only for a VERIFIED outcome, so the command composes
with shell scripting at the inspection desk.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyLocator, "locator", "", "Manual locator override when the service's index has no entry")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Print the full result as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := c.Verify(ctx, args[0], verifyLocator)
	if err != nil {
		return err
	}

	if verifyJSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Printf("Outcome: %s\n", res.Outcome)
		if res.Record != nil {
			fmt.Printf("Channel: %s\n", res.Channel)
			fmt.Printf("Declared value:   %d\n", res.Record.DeclaredValue)
			fmt.Printf("Market reference: %d\n", res.Record.MarketReference)
			if res.Record.Submitter != "" {
				fmt.Printf("Submitter:        %s\n", res.Record.Submitter)
			}
			fmt.Printf("Recorded at:      %s\n", res.Record.RecordedAt.Format(time.RFC3339))
		}
		if res.Detail != "" {
			fmt.Printf("Detail:  %s\n", res.Detail)
		}
	}

	if res.Outcome != "VERIFIED" {
		return fmt.Errorf("verification outcome: %s", res.Outcome)
	}
	return nil
}

// ── fetch ────────────────────────────────────────────────────────────────────

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch <fingerprint>",
	Short: "Download the anchored document bytes",
	Long: `Fetch retrieves the original document for a verified
fingerprint and re-checks the hash locally before writing it out.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Output file (default: stdout)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	data, err := c.FetchContent(ctx, args[0])
	if err != nil {
		return err
	}

	if fetchOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(fetchOutput, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", len(data), fetchOutput)
	return nil
}

// ── ledger ───────────────────────────────────────────────────────────────────

var ledgerCmd = &cobra.Command{
	Use:   "ledger [fingerprint]",
	Short: "Show the ledger overview, or one record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if len(args) == 1 {
			rec, err := c.LedgerRecord(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(rec)
		}

		overview, err := c.Ledger(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Entries:        %d\n", overview.Entries)
		fmt.Printf("Risk threshold: %.3f\n", overview.RiskThreshold)
		return nil
	},
}

// ── fingerprint ──────────────────────────────────────────────────────────────

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <document-file>",
	Short: "Compute a document's fingerprint locally without contacting the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		sum := sha256.Sum256(data)
		fmt.Println(hex.EncodeToString(sum[:]))
		return nil
	},
}

// ── token ────────────────────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Exchange the configured credentials for a submitter token",
	Long: `Token prints a fresh submitter token for use with other tools
or the --token option, without anchoring anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tok, err := c.FetchToken(ctx)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				return fmt.Errorf("unauthorized: set name/secret in ~/.cleanchain/config.yaml or CLEANCHAIN_NAME/CLEANCHAIN_SECRET")
			}
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cleanchain version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cleanchain", version)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
