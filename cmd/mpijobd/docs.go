package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/mpijobd/docs.go -o internal/httpapi/docs`.
//
// @title           mpijobd API
// @version         1.0
// @description     HTTP API for creating, inspecting and deleting Kubeflow MPIJobs.
//
// @contact.name   mpijobctl maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
