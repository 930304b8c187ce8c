package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coffersTech/logreport/sdks/go/logreport"
)

func main() {
	client := logreport.NewClient("http://localhost:8080")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	req := logreport.GenerateRequest{Service: "api", LogsPath: "var/log/api"}

	reports, err := client.Generate(ctx, req)
	if err != nil {
		var apiErr *logreport.APIError
		if errors.As(err, &apiErr) && apiErr.IsDirectoryNotFound() {
			log.Fatalf("no such logs directory: %s", req.LogsPath)
		}
		log.Fatal(err)
	}
	for _, r := range reports {
		fmt.Print(r)
	}

	// Same report through the job API.
	sub, err := client.Submit(ctx, req)
	if err != nil {
		log.Fatal(err)
	}
	st, err := client.Wait(ctx, sub.JobID, time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("job %s %s with %d reports\n", st.JobID, st.State, len(st.Reports))
}
