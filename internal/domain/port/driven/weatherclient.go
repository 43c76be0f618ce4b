package driven

import (
	"context"

	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

// WeatherClient defines the driven port for the weather forecast API.
type WeatherClient interface {
	Forecast(ctx context.Context, lat, lon float64, days int) (*model.WeatherReport, error)
}
