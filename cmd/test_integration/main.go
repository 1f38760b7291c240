package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func baseURL() string {
	if v := os.Getenv("LINKGRAPH_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Health check...")
	if _, ok := sendRequest("GET", "/healthz"); !ok {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	fmt.Println("2. Running crawl...")
	body, ok := sendRequest("POST", "/crawl")
	if !ok {
		fmt.Println("FAILED: Crawl")
		os.Exit(1)
	}
	var crawl struct {
		RunID    string `json:"run_id"`
		Metadata struct {
			TotalNodes int `json:"total_nodes"`
			TotalEdges int `json:"total_edges"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(body, &crawl); err != nil || crawl.RunID == "" {
		fmt.Printf("FAILED: Crawl response not understood: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("PASSED: Crawl %s (%d nodes, %d edges)\n", crawl.RunID, crawl.Metadata.TotalNodes, crawl.Metadata.TotalEdges)

	fmt.Println("3. Fetching graph...")
	body, ok = sendRequest("GET", "/graph")
	if !ok {
		fmt.Println("FAILED: Graph")
		os.Exit(1)
	}
	var graph struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(body, &graph); err != nil || len(graph.Nodes) != crawl.Metadata.TotalNodes {
		fmt.Printf("FAILED: Graph has %d nodes, crawl reported %d\n", len(graph.Nodes), crawl.Metadata.TotalNodes)
		os.Exit(1)
	}
	fmt.Println("PASSED: Graph")

	fmt.Println("4. Fetching missing pages...")
	if _, ok := sendRequest("GET", "/missing?limit=10"); !ok {
		fmt.Println("FAILED: Missing pages")
		os.Exit(1)
	}
	fmt.Println("PASSED: Missing pages")
}

func sendRequest(method, endpoint string) ([]byte, bool) {
	req, err := http.NewRequest(method, baseURL()+endpoint, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}

	client := &http.Client{Timeout: 30 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}
	return respBody, true
}
