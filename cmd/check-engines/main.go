package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/geotrack/visibility-tracker/internal/engines"
	"github.com/geotrack/visibility-tracker/internal/extractor"
	"github.com/geotrack/visibility-tracker/internal/models"
)

func main() {
	fmt.Println("🔍 AI Visibility Tracker - Engine Connectivity Check")
	fmt.Println("====================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	registry := engines.Registry{}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		chatgpt, err := engines.NewChatGPTEngine(apiKey, os.Getenv("OPENAI_MODEL"))
		if err != nil {
			log.Fatalf("Failed to initialize ChatGPT engine: %v", err)
		}
		registry[chatgpt.Name()] = chatgpt
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	prompt := "What are the best project management tools? Please include specific product names and URLs."

	fmt.Println("\n📡 Checking engines...")
	fmt.Println(strings.Repeat("-", 40))

	for _, name := range models.KnownEngines {
		checkEngine(ctx, registry, name, prompt)
	}

	fmt.Println("\n✅ Engine connectivity check completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing API keys in .env file")
	fmt.Println("   • Run the full service with: make run")
}

func checkEngine(ctx context.Context, registry engines.Registry, name, prompt string) {
	fmt.Printf("🔸 Checking %s... ", name)

	engine, ok := registry[name]
	if !ok {
		fmt.Printf("⚠️  NOT CONFIGURED (no API key or integration)\n")
		return
	}

	response, err := engine.Query(ctx, prompt, engines.QueryOptions{})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d tokens, model %s)\n", response.Usage.TotalTokens, response.Model)

	// Run the extractor over the live answer as a smoke check
	analysis := extractor.New().Extract(response.Content, []string{"Asana"})
	fmt.Printf("   📝 Extraction: %s\n", analysis.Summary)
}
