package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"retail-cockpit-api/pkg/lambda"
)

// routes served by this function; everything else stays on the server
var servedPrefixes = []string{
	"/health",
	"/api/v1/auth/",
	"/api/v1/dashboard/",
}

func served(path string) bool {
	for _, p := range servedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func handler(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if !served(event.Path) {
		return lambda.JSONError(http.StatusNotFound, "Not found").APIGateway(), nil
	}

	req, err := lambda.FromAPIGateway(event)
	if err != nil {
		return lambda.JSONError(http.StatusBadRequest, err.Error()).APIGateway(), nil
	}

	container, err := lambda.GetConnectionManager().GetContainer(ctx)
	if err != nil {
		return lambda.JSONError(http.StatusInternalServerError, "Internal server error").APIGateway(), nil
	}

	resp, err := lambda.HandlerFor(container.Router)(ctx, req)
	if err != nil {
		container.Logger.WithError(err).Error("Lambda request failed")
		return lambda.JSONError(http.StatusInternalServerError, "Internal server error").APIGateway(), nil
	}
	return resp.APIGateway(), nil
}

func main() {
	awslambda.Start(handler)
}
