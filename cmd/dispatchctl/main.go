// cmd/dispatchctl/main.go
//
// dispatchctl is an operator CLI against a running dispatcher's HTTP API.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpClient = &http.Client{Timeout: 10 * time.Second}
)

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "Operator CLI for the gig dispatch engine.",
}

func apiURL(path string) string {
	return strings.TrimRight(serverAddr, "/") + path
}

func postJSON(path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return httpClient.Post(apiURL(path), "application/json", bytes.NewReader(payload))
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err == nil {
			fmt.Println(pretty.String())
		} else {
			fmt.Println(strings.TrimSpace(string(body)))
		}
	} else {
		fmt.Println("ok")
	}
	return nil
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a new gig",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		description, _ := cmd.Flags().GetString("description")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		address, _ := cmd.Flags().GetString("address")
		urgency, _ := cmd.Flags().GetString("urgency")
		budget, _ := cmd.Flags().GetFloat64("budget")

		resp, err := postJSON("/gigs/", map[string]any{
			"category":    category,
			"description": description,
			"lat":         lat,
			"lng":         lng,
			"address":     address,
			"urgency":     urgency,
			"budget_hint": budget,
		})
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <gig-id>",
	Short: "Print a gig's status snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := httpClient.Get(apiURL("/gigs/" + args[0]))
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <gig-id>",
	Short: "Stream a gig's status events until it reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The events endpoint is server-sent events; a plain streaming
		// GET with no client timeout is all it takes.
		client := &http.Client{}
		resp, err := client.Get(apiURL("/gigs/" + args[0] + "/events"))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				fmt.Println(data)
			}
		}
		return scanner.Err()
	},
}

func workerActionCmd(use, short, action string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <gig-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workerID, _ := cmd.Flags().GetString("worker")
			resp, err := postJSON("/gigs/"+args[0]+"/"+action, map[string]any{"worker_id": workerID})
			if err != nil {
				return err
			}
			return printResponse(resp)
		},
	}
	cmd.Flags().String("worker", "", "worker id")
	_ = cmd.MarkFlagRequired("worker")
	return cmd
}

var completeCmd = &cobra.Command{
	Use:   "complete <gig-id>",
	Short: "Mark a confirmed gig's work as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := postJSON("/gigs/"+args[0]+"/complete", map[string]any{})
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <gig-id>",
	Short: "Cancel a gig that has not finished",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		resp, err := postJSON("/gigs/"+args[0]+"/cancel", map[string]any{"reason": reason})
		if err != nil {
			return err
		}
		return printResponse(resp)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "dispatcher HTTP API address")

	postCmd.Flags().String("category", "", "gig category")
	postCmd.Flags().String("description", "", "what needs doing")
	postCmd.Flags().Float64("lat", 0, "latitude")
	postCmd.Flags().Float64("lng", 0, "longitude")
	postCmd.Flags().String("address", "", "street address")
	postCmd.Flags().String("urgency", "flexible", "asap | today | flexible")
	postCmd.Flags().Float64("budget", 0, "budget hint")
	_ = postCmd.MarkFlagRequired("category")
	_ = postCmd.MarkFlagRequired("description")

	cancelCmd.Flags().String("reason", "", "cancellation reason")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(workerActionCmd("accept", "Accept an offer as a worker", "accept"))
	rootCmd.AddCommand(workerActionCmd("decline", "Decline an offer as a worker", "decline"))
	rootCmd.AddCommand(workerActionCmd("confirm", "Confirm a reservation as the winning worker", "confirm"))
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(cancelCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
