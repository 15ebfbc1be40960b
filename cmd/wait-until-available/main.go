package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/contactsapp/contacts-api/internal/config"
)

// Polls the health endpoint until the service answers, for use in container
// startup ordering. The port comes from the same configuration the service
// reads, so the helper follows APP_PORT overrides.
func main() {
	cfg := config.Load()
	url := "http://localhost:" + cfg.AppPort + "/health"
	totalWaitTime := 0
	for {
		res, err := http.Get(url)
		if err == nil {
			if res.StatusCode == http.StatusOK {
				fmt.Println(res)
				break
			} else {
				fmt.Println(res)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
