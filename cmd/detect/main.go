package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"solana-derivative-lab/internal/detect"
	"solana-derivative-lab/internal/domain"
)

func main() {
	// Parse flags
	runnerName := flag.String("runner-name", "", "Runner token name, e.g. \"Pepe\" (required)")
	runnerSymbol := flag.String("runner-symbol", "", "Runner token symbol, e.g. PEPE (required)")
	tokenName := flag.String("token-name", "", "Candidate token name (required)")
	tokenSymbol := flag.String("token-symbol", "", "Candidate token symbol (required)")
	runnerKeywords := flag.String("runner-keywords", "", "Comma-separated runner keywords (optional)")
	tokenKeywords := flag.String("token-keywords", "", "Comma-separated candidate keywords (optional)")
	asJSON := flag.Bool("json", false, "Print result as JSON")
	flag.Parse()

	if *runnerName == "" || *runnerSymbol == "" || *tokenName == "" || *tokenSymbol == "" {
		fmt.Fprintln(os.Stderr, "Error: --runner-name, --runner-symbol, --token-name and --token-symbol are required")
		flag.Usage()
		os.Exit(1)
	}

	detector := detect.New(detect.DefaultConfig())

	result := detector.DetectDescriptors(
		domain.TokenDescriptor{Name: *runnerName, Symbol: *runnerSymbol, Keywords: splitKeywords(*runnerKeywords)},
		domain.TokenDescriptor{Name: *tokenName, Symbol: *tokenSymbol, Keywords: splitKeywords(*tokenKeywords)},
	)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printResult(*tokenSymbol, *runnerSymbol, result)
}

func splitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(s, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func printResult(tokenSymbol, runnerSymbol string, result domain.AggregateResult) {
	if result.IsDerivative {
		fmt.Printf("%s is a derivative of %s\n", tokenSymbol, runnerSymbol)
		fmt.Printf("  Best method: %s\n", result.BestMethod)
		fmt.Printf("  Confidence:  %d\n", result.Confidence)
		fmt.Printf("  Agreement:   %d method(s)\n", result.AgreementCount)
		fmt.Printf("  Explanation: %s\n", result.Explanation)
		if len(result.Methods) > 0 {
			fmt.Println("  Matched methods:")
			for _, m := range result.Methods {
				fmt.Printf("    %-22s %3d  %s\n", m.Method, m.Confidence, m.Explanation)
			}
		}
		return
	}
	fmt.Printf("%s is not a derivative of %s\n", tokenSymbol, runnerSymbol)
}
