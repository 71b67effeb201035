package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Status is a liveness endpoint used by load balancers and the frontend to
// verify that the server is running.  It answers 200 with a plain text body.
func Status(c echo.Context) error {
    return c.String(http.StatusOK, "Server is running")
}
