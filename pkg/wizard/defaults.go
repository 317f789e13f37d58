package wizard

// DefaultController returns the controller section every generated
// agent starts from.
func DefaultController() map[string]interface{} {
	return map[string]interface{}{
		"Name": "SWARMBase",
		"Gains": map[string]interface{}{
			"P": 1.0,
			"I": 0.25,
			"D": 0.05,
		},
	}
}

// DefaultSensor returns a ready-to-run config section for a sensor
// kind. Values sit inside the documented operating ranges, so a
// generated agent validates without further edits.
func DefaultSensor(kind string) map[string]interface{} {
	switch kind {
	case "Cameras":
		return map[string]interface{}{
			"FrontCamera": DefaultCamera(),
		}
	case "LiDAR":
		return map[string]interface{}{
			"Enabled":        true,
			"Method":         "Colosseum",
			"Hardware":       "VLP-16",
			"X":              0.0,
			"Y":              0.0,
			"Z":              0.0,
			"Roll":           0.0,
			"Pitch":          0.0,
			"Yaw":            0.0,
			"PublishingRate": 10.0,
			"Settings": map[string]interface{}{
				"Range":              100.0,
				"NumberOfChannels":   16.0,
				"RotationsPerSecond": 10.0,
				"PointsPerSecond":    300000.0,
				"VerticalFOVUpper":   15.0,
				"VerticalFOVLower":   -15.0,
				"HorizontalFOVStart": -30.0,
				"HorizontalFOVEnd":   30.0,
				"DataFrame":          "SensorLocalFrame",
			},
		}
	case "Distance":
		return map[string]interface{}{
			"Enabled":        true,
			"Method":         "Colosseum",
			"X":              0.0,
			"Y":              0.0,
			"Z":              0.0,
			"Roll":           0.0,
			"Pitch":          0.0,
			"Yaw":            0.0,
			"PublishingRate": 10.0,
			"MinDistance":    0.5,
			"MaxDistance":    40.0,
		}
	default:
		return map[string]interface{}{
			"Enabled":        true,
			"Method":         "Colosseum",
			"PublishingRate": defaultPublishingRate(kind),
		}
	}
}

// DefaultCamera returns one camera config with mid-range settings.
func DefaultCamera() map[string]interface{} {
	return map[string]interface{}{
		"Enabled":     true,
		"PublishPose": false,
		"X":           0.25,
		"Y":           0.0,
		"Z":           0.0,
		"Roll":        0.0,
		"Pitch":       0.0,
		"Yaw":         0.0,
		"Settings": map[string]interface{}{
			"ImageType":       "Scene",
			"Width":           1280.0,
			"Height":          720.0,
			"FOV_Degrees":     90.0,
			"FramesPerSecond": 30.0,
		},
	}
}

func defaultPublishingRate(kind string) float64 {
	switch kind {
	case "IMU":
		return 100.0
	case "Odometers":
		return 30.0
	default:
		return 10.0
	}
}
