package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"examprep"
)

func main() {
	var (
		course     = flag.String("course", "", "Course name (required)")
		topic      = flag.String("topic", "", "Topic within the course (required)")
		difficulty = flag.String("difficulty", "Medium", "Difficulty level (Easy, Medium, Hard)")
		count      = flag.Int("count", examprep.DefaultQuestionCount, "Number of questions to generate")
		outputFile = flag.String("output", "", "Output file for question set JSON (default: stdout)")
		apiKey     = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		traceDir   = flag.String("trace-dir", "", "Directory for pipeline trace logs")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	examprep.SetVerbose(*verbose)

	if *course == "" {
		log.Fatal("Course is required. Use -course flag.")
	}
	if *topic == "" {
		log.Fatal("Topic is required. Use -topic flag.")
	}

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	pipeline := examprep.NewPipeline(examprep.NewOpenAIClient(*apiKey), examprep.NewFallbackBank())
	if *traceDir != "" {
		pipeline.SetTraceDir(*traceDir)
	}

	req := examprep.GenerationRequest{
		Course:     *course,
		Topic:      *topic,
		Difficulty: examprep.Difficulty(*difficulty),
		Count:      *count,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	questions, err := pipeline.GenerateQuestionSet(ctx, req, nil)
	if err != nil {
		log.Fatalf("Failed to generate question set: %v", err)
	}

	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal question set: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, data, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		fmt.Printf("Wrote %d questions to %s\n", len(questions), *outputFile)
		return
	}
	fmt.Println(string(data))
}
