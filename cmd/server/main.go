package main

import (
	"github.com/eleven-am/video-search/internal/bootstrap"
)

// @title Video Search API
// @version 1.0.0
// @description Find videos that contain a query clip by matching frame features and aligning them in time

// @host api.video-search.example.com
// @BasePath /v1

func main() {
	bootstrap.Run()
}
