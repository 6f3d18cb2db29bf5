package persist

import "fmt"

// MaxIMUs is the number of inertial sensor instances with calibration slots.
const MaxIMUs = 3

// Vector3 is a per-axis calibration term.
type Vector3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

func (v Vector3) axes() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// TemperatureCalibration is the polynomial fit of sensor drift over
// temperature, learned once on the bench and expensive to repeat.
type TemperatureCalibration struct {
	Enabled bool       `yaml:"enabled"`
	TMin    float32    `yaml:"tmin"`
	TMax    float32    `yaml:"tmax"`
	Accel   [3]Vector3 `yaml:"accel"`
	Gyro    [3]Vector3 `yaml:"gyro"`
}

// IMUCalibration is the calibration of one inertial sensor instance.
type IMUCalibration struct {
	AccelOffset Vector3                 `yaml:"accel_offset"`
	AccelScale  Vector3                 `yaml:"accel_scale"`
	GyroOffset  Vector3                 `yaml:"gyro_offset"`
	Temperature *TemperatureCalibration `yaml:"temperature"`
}

// Calibrated reports whether the accelerometer has been calibrated. An
// uncalibrated instance has a zero scale.
func (c IMUCalibration) Calibrated() bool {
	return c.AccelScale != Vector3{}
}

// InertialCalibration is the Producer for inertial sensor calibration.
type InertialCalibration struct {
	IMUs []IMUCalibration `yaml:"imus"`
}

var axisNames = [3]string{"X", "Y", "Z"}

// PersistentParams implements Producer.
func (ic *InertialCalibration) PersistentParams(b *Builder) {
	ic.each(false, func(name string, value float32) {
		b.Printf("%s=%s\n", name, FormatValue(value))
	})
}

// Names returns every parameter name the producer can emit for the
// configured instances, calibrated or not.
func (ic *InertialCalibration) Names() []string {
	var names []string
	ic.each(true, func(name string, _ float32) {
		names = append(names, name)
	})
	return names
}

func (ic *InertialCalibration) each(all bool, emit func(name string, value float32)) {
	for i, imu := range ic.IMUs {
		if i >= MaxIMUs {
			break
		}
		if !all && !imu.Calibrated() {
			continue
		}

		offs, scal, gyro := imu.AccelOffset.axes(), imu.AccelScale.axes(), imu.GyroOffset.axes()
		for a, axis := range axisNames {
			emit(fmt.Sprintf("INS_ACC%sOFFS_%s", instance(i), axis), offs[a])
			emit(fmt.Sprintf("INS_ACC%sSCAL_%s", instance(i), axis), scal[a])
		}
		for a, axis := range axisNames {
			emit(fmt.Sprintf("INS_GYR%sOFFS_%s", instance(i), axis), gyro[a])
		}

		tc := imu.Temperature
		if !all && (tc == nil || !tc.Enabled) {
			continue
		}
		if tc == nil {
			tc = &TemperatureCalibration{}
		}
		enabled := float32(0)
		if tc.Enabled {
			enabled = 1
		}
		emit(fmt.Sprintf("INS_TCAL%d_ENABLE", i+1), enabled)
		emit(fmt.Sprintf("INS_TCAL%d_TMIN", i+1), tc.TMin)
		emit(fmt.Sprintf("INS_TCAL%d_TMAX", i+1), tc.TMax)
		for k := 0; k < 3; k++ {
			acc := tc.Accel[k].axes()
			for a, axis := range axisNames {
				emit(fmt.Sprintf("INS_TCAL%d_ACC%d_%s", i+1, k+1, axis), acc[a])
			}
		}
		for k := 0; k < 3; k++ {
			gyr := tc.Gyro[k].axes()
			for a, axis := range axisNames {
				emit(fmt.Sprintf("INS_TCAL%d_GYR%d_%s", i+1, k+1, axis), gyr[a])
			}
		}
	}
}

// instance is the sensor name infix: "" for the first sensor (INS_ACCOFFS_X),
// then "2", "3" (INS_ACC2OFFS_X).
func instance(i int) string {
	if i == 0 {
		return ""
	}
	return fmt.Sprint(i + 1)
}
