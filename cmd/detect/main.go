// Command detect runs the object detector once and prints what it saw.
// It reads a frame from the camera, or from an image file with -image.
//
// Usage:
//
//	go run ./cmd/detect/ -model models/yolov8n.onnx
//	go run ./cmd/detect/ -image room.jpg -threshold 0.4
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/auralens/auralens/internal/config"
	"github.com/auralens/auralens/pkg/camera"
	"github.com/auralens/auralens/pkg/describe"
	"github.com/auralens/auralens/pkg/detect"
)

func main() {
	godotenv.Load()

	model := flag.String("model", config.ModelPath(), "Path to the YOLO ONNX model")
	imagePath := flag.String("image", "", "Detect on this image file instead of the camera")
	device := flag.Int("camera", config.CameraDevice(), "Camera device index")
	threshold := flag.Float64("threshold", 0.5, "Confidence threshold")
	flag.Parse()

	yoloCfg := detect.DefaultYOLOConfig()
	yoloCfg.ModelPath = *model
	detector, err := detect.NewYOLO(yoloCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load model: %v\n", err)
		os.Exit(1)
	}
	defer detector.Close()

	var dets []detect.Detection
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read image: %v\n", err)
			os.Exit(1)
		}
		dets, err = detector.DetectJPEG(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "detect: %v\n", err)
			os.Exit(1)
		}
	} else {
		cam := camera.NewWebcam(camera.WebcamConfig{Device: *device, Quality: 85})
		if err := cam.Acquire(); err != nil {
			fmt.Fprintf(os.Stderr, "camera: %v\n", err)
			os.Exit(1)
		}
		defer cam.Release()

		frame, err := cam.Capture()
		if err != nil {
			fmt.Fprintf(os.Stderr, "capture: %v\n", err)
			os.Exit(1)
		}
		dets, err = detector.DetectJPEG(frame.JPEG)
		if err != nil {
			fmt.Fprintf(os.Stderr, "detect: %v\n", err)
			os.Exit(1)
		}
	}

	visible := detect.AboveConfidence(dets, *threshold)
	if len(visible) == 0 {
		fmt.Println("nothing detected above threshold")
		return
	}

	for _, d := range detect.TopByConfidence(visible, len(visible)) {
		fmt.Printf("%-14s %.2f  %v\n", d.Label, d.Confidence, d.Box)
	}
	fmt.Println(describe.New().Compose(detect.Labels(visible)))
}
