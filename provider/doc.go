// Package provider groups the HTTP clients for the external data and language
// services used by the capability palette:
//
//   - openweather: current weather and reverse geocoding (OpenWeatherMap)
//   - agmarknet: mandi commodity prices (data.gov.in)
//   - sarvam: language identification, translation, speech-to-text and text-to-speech
//
// Clients take a context on every call, honour a per-request timeout and
// return wrapped errors; turning those errors into user-facing text is the
// job of the capability layer.
package provider
