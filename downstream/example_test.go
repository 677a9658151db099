package downstream_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/jonwraymond/healthz/downstream"
	"github.com/jonwraymond/healthz/health"
)

func ExampleClient_Checker() {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", health.ContentType)
		_, _ = w.Write([]byte(`{"status":"Healthy","results":{"db":{"status":"Healthy"},"Version":"2.0.0"}}`))
	}))
	defer remote.Close()

	client, err := downstream.NewClient(downstream.Config{Name: "billing", URL: remote.URL})
	if err != nil {
		fmt.Println(err)
		return
	}

	runner := health.NewRunner()
	runner.Register(client.Name(), client.Checker())

	report := runner.Report(context.Background(), health.NewReportBuilder("orders", ""))
	billing, _ := report.Entry("billing")
	fmt.Println(report.Status, billing.Version, billing.Keys())
	// Output: Healthy 2.0.0 [db]
}
